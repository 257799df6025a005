package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update-shell",
		Short: "Fetch the latest base design for the project's shell type",
		Long: `Asks the cloudFPGA resource manager for the newest base design of the
cFpSRAtype in cFp.json and replaces dcps/3_top<MOD>_STATIC.{dcp,json} when it
differs from the local copy. Credentials are read from user.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd.Context(), cmd.ErrOrStderr()); err != nil {
				return err
			}

			result, err := a.shell().UpdateShell(cmd.Context(), a.layout)
			if err != nil {
				return err
			}

			if result.UpToDate {
				fmt.Fprintf(cmd.OutOrStdout(), "Base design %s is up to date.\n", result.Release.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Base design %s written to %s.\n", result.Release.ID, result.DcpPath)
			}
			return nil
		},
	}
}
