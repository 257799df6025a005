package main

import (
	"github.com/spf13/cobra"

	orchestrators "github.com/cloudfpga/cfbuild/internal/domain-orchestrators"
)

func newAdminSigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "admin-sig <new-mcs-file> <new-bit-file> <pr-verify-report>",
		Short: "Sign a newly built base design into dcps/admin.sig",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd.Context(), cmd.ErrOrStderr()); err != nil {
				return err
			}

			orch, err := a.signing()
			if err != nil {
				return err
			}
			_, err = orch.SignAdmin(cmd.Context(), a.layout, orchestrators.AdminRequest{
				Mcs:    args[0],
				Bit:    args[1],
				Report: args[2],
			})
			return err
		},
	}
}
