package main

import (
	"fmt"

	"github.com/spf13/cobra"

	orchestrators "github.com/cloudfpga/cfbuild/internal/domain-orchestrators"
	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

func newCreateSigCmd(a *app) *cobra.Command {
	var scheme string

	cmd := &cobra.Command{
		Use:   "create-sig <new-bin-file> [<pr-verify-report>|ignore]",
		Short: "Sign a role build against the current base design",
		Long: `Writes dcps/<new-bin-file>.sig, chaining the new artifact to the base design
certificate in dcps/3_top<MOD>_STATIC.json. File names are relative to dcps/.

The hc1-v3 scheme (default) also binds the PR verify report; pass "ignore" to
sign without one. The legacy hc1-v1 scheme takes only the artifact.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd.Context(), cmd.ErrOrStderr()); err != nil {
				return err
			}

			req := orchestrators.RoleRequest{Artifact: args[0]}
			if len(args) == 2 {
				req.Report = args[1]
			}
			if scheme != "" {
				s, err := entities.ParseScheme(scheme)
				if err != nil {
					return fmt.Errorf("%w: %v", entities.ErrUsage, err)
				}
				req.Scheme = s
			}

			orch, err := a.signing()
			if err != nil {
				return err
			}
			_, err = orch.SignRole(cmd.Context(), a.layout, req)
			return err
		},
	}

	cmd.Flags().StringVar(&scheme, "scheme", "", "Signature scheme: hc1-v3 or hc1-v1 (overrides cfbuild.yaml)")
	return cmd
}
