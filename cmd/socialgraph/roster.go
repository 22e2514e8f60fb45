package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/efebarandurmaz/socialgraph/internal/observability"
	"github.com/efebarandurmaz/socialgraph/internal/roster"
)

func newRosterCmd(a *app) *cobra.Command {
	rosterCmd := &cobra.Command{
		Use:   "roster",
		Short: "Import or export members as a whitespace separated roster file",
	}
	rosterCmd.AddCommand(newRosterImportCmd(a), newRosterExportCmd(a))
	return rosterCmd
}

func (a *app) rosterPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.Roster.Path
}

func newRosterImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Register every member listed in a roster file",
		Long: `Register every member listed in a roster file (default roster.path).

Each line is "id department role" or "id department role interest activity goal".
The word null leaves an attribute unset. Members that are already registered
are reported and skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.rosterPath(args)
			p := a.printer()

			var (
				records  []roster.Record
				failures []roster.Failure
				applied  int
				parseErr error
			)
			err := a.op(cmd.Context(), "roster_import", func(ctx context.Context) (int, error) {
				f, err := os.Open(path)
				if err != nil {
					return 0, fmt.Errorf("open roster: %w", err)
				}
				defer f.Close()

				// Records before a malformed line are still applied.
				records, parseErr = roster.Decode(f)
				applied, failures = roster.Apply(a.net, records)
				return applied, nil
			})
			if err != nil {
				a.audit.LogRoster(cmd.Context(), observability.AuditEventRosterImport, path, 0, 0, err)
				return err
			}
			a.audit.LogRoster(cmd.Context(), observability.AuditEventRosterImport, path, len(records), len(failures), parseErr)

			if applied > 0 {
				a.mutated()
			}
			for _, f := range failures {
				a.log.Warn("roster entry rejected", zap.String("id", f.Record.ID), zap.Error(f.Err))
				p.Warning("%v", f.Err)
			}
			p.Success("registered %d of %d members from %s", applied, len(records), path)
			if parseErr != nil {
				// Post-run hooks are skipped on error, so keep what was applied.
				return errors.Join(parseErr, a.commit(cmd.Context()))
			}
			return nil
		},
	}
}

func newRosterExportCmd(a *app) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write every member to a roster file",
		Long: `Write every member to a roster file (default roster.path).

Without --full only id, department and role are written, so interest, activity
and goal do not survive a round trip. Use --full to keep them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.rosterPath(args)

			format, err := roster.ParseFormat(a.cfg.Roster.Format)
			if err != nil {
				return err
			}
			if full {
				format = roster.FormatFull
			}

			var records []roster.Record
			err = a.op(cmd.Context(), "roster_export", func(ctx context.Context) (int, error) {
				records = roster.FromMembers(a.net.Members())
				return len(records), roster.WriteFile(path, records, format)
			})
			a.audit.LogRoster(cmd.Context(), observability.AuditEventRosterExport, path, len(records), 0, err)
			if err != nil {
				return err
			}

			a.printer().Success("wrote %d members to %s", len(records), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Write every attribute, not just department and role")
	return cmd
}
