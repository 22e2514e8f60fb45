package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/socialgraph/internal/observability"
	"github.com/efebarandurmaz/socialgraph/internal/tui"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := newApp(stdin, stdout, stderr, observability.Metrics())

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)

	if cerr := a.close(ctx, err); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		tui.NewPrinter(stderr, false).Error(err)
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "socialgraph",
		Short:         "In-memory social network of members and their connections",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd.Context()); err != nil {
				return err
			}
			cmd.SetContext(a.beginCommand(cmd.Context(), cmd.Name()))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			err := a.commit(cmd.Context())
			if !a.interactive {
				a.endCommand(err)
			}
			return err
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "socialgraph.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Output results as JSON")
	rootCmd.SetIn(a.stdin)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	rootCmd.AddCommand(
		newRegisterCmd(a),
		newSetCmd(a),
		newShowCmd(a),
		newMembersCmd(a),
		newConnectCmd(a),
		newNetworkCmd(a),
		newPathCmd(a),
		newMutualCmd(a),
		newSuggestCmd(a),
		newMatrixCmd(a),
		newStatsCmd(a),
		newExportCmd(a),
		newRosterCmd(a),
		newSaveCmd(a),
		newShellCmd(a),
	)
	return rootCmd
}
