package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ics-distsys/mrtracker/demo"
	"github.com/ics-distsys/mrtracker/job"
)

// NewPlanCmd submits a job and prints the placement plan the demo planner
// produced for it, rendered with tablewriter the same way other commands
// in this tree render tabular output.
func NewPlanCmd() *cobra.Command {
	var inputs string
	var reducers int

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Submit a job and print its placement plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			clusterTag, _ := cmd.Flags().GetString("cluster-tag")

			t := demo.New(clusterTag)
			defer t.Shutdown()

			future, err := t.Submit(job.Info{
				InputPaths: strings.Split(inputs, ","),
				Reducers:   reducers,
				Config:     map[string]string{},
			})
			if err != nil {
				return err
			}

			plan, ok := t.Plan(future.JobId)
			if !ok {
				return fmt.Errorf("no plan recorded for %s", future.JobId)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Node", "Mapper Splits", "Reducer Indices"})

			for _, node := range plan.Nodes() {
				splits := plan.SplitsFor(node)
				splitIDs := make([]string, len(splits))
				for i, s := range splits {
					splitIDs[i] = s.ID()
				}

				idxs := plan.ReducersFor(node)
				idxStrs := make([]string, len(idxs))
				for i, idx := range idxs {
					idxStrs[i] = strconv.Itoa(idx)
				}

				table.Append([]string{string(node), strings.Join(splitIDs, ", "), strings.Join(idxStrs, ", ")})
			}

			table.Render()

			<-future.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&inputs, "inputs", "", "comma-separated input paths")
	cmd.Flags().IntVar(&reducers, "reducers", 1, "number of reducers")

	return cmd
}
