// cfbuild signs and verifies cloudFPGA build artifacts.
//
// Usage:
//
//	cfbuild create-sig <new-bin-file> [<pr-verify-report>|ignore]
//	cfbuild admin-sig <new-mcs-file> <new-bit-file> <pr-verify-report>
//	cfbuild verify-sig <new-bin-file> [<pr-verify-report>|ignore]
//	cfbuild verify-sig --admin <new-mcs-file> <new-bit-file> <pr-verify-report>
//	cfbuild verify-sig --all
//	cfbuild update-shell
//	cfbuild schema
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and maps any failure to exit code 1
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "[cFBuild] ERROR: %v. STOP.\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cfbuild",
		Short: "Sign and verify cloudFPGA build artifacts",
		Long: "cfbuild chains every role build to the base design it was built against.\n" +
			"Each signature binds the base design certificate, the PR verify report\n" +
			"and the new artifact into a .sig record beside the artifact.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.opts.root, "root", "", "Project root holding cFp.json (default: search upwards, or $CFP_DEBUGGING)")
	f.StringVar(&a.opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides cfbuild.yaml)")
	f.StringVar(&a.opts.logFormat, "log-format", "", "Log format: text or json (overrides cfbuild.yaml)")
	f.StringVar(&a.opts.signer, "signer", "", "File hashed as the signer identity (default: this executable)")

	root.AddCommand(
		newCreateSigCmd(a),
		newAdminSigCmd(a),
		newVerifySigCmd(a),
		newUpdateShellCmd(a),
		newSchemaCmd(),
	)
	return root
}
