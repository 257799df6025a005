package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	orchestrators "github.com/cloudfpga/cfbuild/internal/domain-orchestrators"
	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

func newVerifySigCmd(a *app) *cobra.Command {
	var all, admin bool

	cmd := &cobra.Command{
		Use:   "verify-sig [<new-bin-file> [<pr-verify-report>|ignore]]",
		Short: "Verify signature records against the current project state",
		Long: `Re-derives the signature of dcps/<new-bin-file>.sig from the base design,
the signer and the artifact, and checks the transport hash and record schema.

  --admin  verify dcps/admin.sig from <mcs> <bit> <pr-verify-report>
  --all    check schema and transport hash of every record under dcps/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case all && admin:
				return fmt.Errorf("%w: --all and --admin are exclusive", entities.ErrUsage)
			case all && len(args) != 0:
				return fmt.Errorf("%w: --all takes no arguments", entities.ErrUsage)
			case admin && len(args) != 3:
				return fmt.Errorf("%w: --admin needs <new-mcs-file> <new-bit-file> <pr-verify-report>", entities.ErrUsage)
			case !all && !admin && (len(args) < 1 || len(args) > 2):
				return fmt.Errorf("%w: verify-sig needs <new-bin-file> [<pr-verify-report>|ignore]", entities.ErrUsage)
			}

			if err := a.load(cmd.Context(), cmd.ErrOrStderr()); err != nil {
				return err
			}
			orch, err := a.signing()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case all:
				results, err := orch.VerifyAll(cmd.Context(), a.layout)
				for _, r := range results {
					printResult(out, a.layout, r)
				}
				if err != nil {
					if len(results) == 0 {
						return err
					}
					return fmt.Errorf("%d of %d records failed verification", countFailed(results), len(results))
				}
				return nil
			case admin:
				result, err := orch.VerifyAdmin(cmd.Context(), a.layout, orchestrators.AdminRequest{
					Mcs:    args[0],
					Bit:    args[1],
					Report: args[2],
				})
				if err != nil {
					return err
				}
				printResult(out, a.layout, result)
				return nil
			default:
				req := orchestrators.RoleRequest{Artifact: args[0]}
				if len(args) == 2 {
					req.Report = args[1]
				}
				result, err := orch.VerifyRole(cmd.Context(), a.layout, req)
				if err != nil {
					return err
				}
				printResult(out, a.layout, result)
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Check every *.sig record under dcps/")
	cmd.Flags().BoolVar(&admin, "admin", false, "Verify dcps/admin.sig")
	return cmd
}

func printResult(out io.Writer, layout entities.ProjectLayout, r *orchestrators.VerifyResult) {
	name := r.RecordPath
	if rel, err := filepath.Rel(layout.DcpsDir, r.RecordPath); err == nil {
		name = rel
	}
	if r.Err != nil {
		fmt.Fprintf(out, "FAIL  %s: %v\n", name, r.Err)
		return
	}
	fmt.Fprintf(out, "OK    %s (%s)\n", name, strings.Join(r.Checks, ", "))
}

func countFailed(results []*orchestrators.VerifyResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
