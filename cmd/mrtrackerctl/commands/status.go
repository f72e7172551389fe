package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ics-distsys/mrtracker/demo"
	"github.com/ics-distsys/mrtracker/job"
)

// NewStatusCmd submits a job and prints its terminal status in tabular
// form once it completes.
func NewStatusCmd() *cobra.Command {
	var inputs string
	var reducers int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Submit a job and print its terminal status",
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

			jobErr := future.Wait()

			_, info, err := t.Status(future.JobId)
			if err != nil && err.Error() != "mrtracker: job not found" {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"JobId", "Reducers", "Result"})

			result := "success"
			if jobErr != nil {
				result = jobErr.Error()
			}

			table.Append([]string{future.JobId.String(), fmt.Sprintf("%d", info.Reducers), result})
			table.Render()

			return nil
		},
	}

	cmd.Flags().StringVar(&inputs, "inputs", "", "comma-separated input paths")
	cmd.Flags().IntVar(&reducers, "reducers", 1, "number of reducers")

	return cmd
}
