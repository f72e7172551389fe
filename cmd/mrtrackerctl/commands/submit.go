package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ics-distsys/mrtracker/demo"
	"github.com/ics-distsys/mrtracker/job"
)

// NewSubmitCmd submits a single job against the single-node demo tracker
// and waits for it to complete, printing the terminal result. It exists to
// exercise the submission & status API end to end from the command line;
// a real deployment would submit against a long-running tracker process
// instead of a fresh in-memory one.
func NewSubmitCmd() *cobra.Command {
	var inputs string
	var output string
	var reducers int
	var external bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a job and wait for it to complete",
		RunE: func(cmd *cobra.Command, args []string) error {
			clusterTag, _ := cmd.Flags().GetString("cluster-tag")

			t := demo.New(clusterTag)
			defer t.Shutdown()

			info := job.Info{
				InputPaths: strings.Split(inputs, ","),
				OutputPath: output,
				Reducers:   reducers,
				Config:     map[string]string{},
			}
			if external {
				info.Config[job.ConfigExternalExecution] = "true"
			}

			future, err := t.Submit(info)
			if err != nil {
				return err
			}

			fmt.Printf("submitted job %s\n", future.JobId)

			if err := future.Wait(); err != nil {
				fmt.Printf("job %s failed: %v\n", future.JobId, err)
				return nil
			}

			fmt.Printf("job %s completed successfully\n", future.JobId)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputs, "inputs", "", "comma-separated input paths")
	cmd.Flags().StringVar(&output, "output", "", "output path")
	cmd.Flags().IntVar(&reducers, "reducers", 1, "number of reducers")
	cmd.Flags().BoolVar(&external, "external", false, "run tasks in a separate process")

	return cmd
}
