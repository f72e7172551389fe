// Command mrtrackerctl is a thin cobra front-end over the tracker's
// submission & status API, running against an in-process demo wiring
// (package demo) of every external collaborator the tracker core depends
// on but does not implement.
package main

import (
	"fmt"
	"os"

	"github.com/ics-distsys/mrtracker/cmd/mrtrackerctl/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
