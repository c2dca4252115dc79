package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func installVersionCmd(a *App) {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of " + CmdName + " and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", CmdName, Version)
			return err
		},
	}
	a.cmd.AddCommand(cmd)
}
