package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "zkpass %s", Version)
			if Commit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s)", Commit)
			}
			fmt.Fprintln(cmd.OutOrStdout())
		},
	}
}
