/*
Copyright 2026 ICS-DISTSYS.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package commands implements the mrtrackerctl command tree: a root
// command with persistent flags, subcommands wired in via AddCommand, and
// RunE closures that call straight into the library API.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

// NewRootCmd builds the mrtrackerctl root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mrtrackerctl",
		Short: "Operate a replicated MapReduce job tracker node",
		Long:  `mrtrackerctl drives the job submission & status API of a single tracker node.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				fmt.Fprintln(os.Stderr, "mrtrackerctl: verbose mode on")
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringP("cluster-tag", "c", "demo", "cluster tag used for generated job ids")

	cmd.AddCommand(NewSubmitCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewPlanCmd())

	return cmd
}
