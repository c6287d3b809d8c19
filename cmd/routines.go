package cmd

import (
	"fmt"

	"github.com/webcontract/web-contract-tests/testapp"

	"github.com/spf13/cobra"
)

func newRoutinesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routines",
		Short: "List the test applications that can be served",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range testapp.Routines().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
