package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shellPrompt = "socialgraph> "

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively against one in-memory network",
		Long: `Run commands interactively against one in-memory network.

Each line is a command as given on the command line, without the program name.
Changes are written to storage on "save", on "exit" and at end of input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.interactive {
				return errors.New("already in a shell")
			}
			a.interactive = true
			defer func() { a.interactive = false }()

			ctx := cmd.Context()
			p := a.printer()
			scanner := bufio.NewScanner(a.stdin)
			for {
				fmt.Fprint(a.stdout, shellPrompt)
				if !scanner.Scan() {
					fmt.Fprintln(a.stdout)
					break
				}

				fields := strings.Fields(scanner.Text())
				if len(fields) == 0 {
					continue
				}
				if fields[0] == "exit" || fields[0] == "quit" {
					break
				}

				line := newRootCmd(a)
				line.SetArgs(fields)
				if err := line.ExecuteContext(ctx); err != nil {
					a.log.Debug("shell command failed", zap.Strings("args", fields), zap.Error(err))
					p.Error(err)
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read shell input: %w", err)
			}
			return nil
		},
	}
}
