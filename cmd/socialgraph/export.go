package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/efebarandurmaz/socialgraph/internal/export"
	"github.com/efebarandurmaz/socialgraph/internal/observability"
)

// partitionWriters bounds concurrent file writes during a partition export.
const partitionWriters = 4

// Default export file names, relative to export.output_dir.
const (
	defaultDOTFile       = "network_graph.dot"
	defaultHighlightFile = "mutual_highlight.dot"
	defaultMermaidFile   = "network_graph.mmd"
	defaultJSONFile      = "network_graph.json"
	partitionFileSuffix  = "_graph.dot"
)

func newExportCmd(a *app) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the network as Graphviz, Mermaid or JSON",
	}

	exportCmd.AddCommand(
		newSingleExportCmd(a, "dot", "Export the whole network as a Graphviz graph", defaultDOTFile,
			func(args []string) (string, error) {
				return export.DOT(a.net, a.cfg.Export.GraphName), nil
			}),
		newSingleExportCmd(a, "mermaid", "Export the whole network as a Mermaid flowchart", defaultMermaidFile,
			func(args []string) (string, error) {
				return export.Mermaid(a.net), nil
			}),
		newSingleExportCmd(a, "json", "Export nodes, edges and statistics as JSON", defaultJSONFile,
			func(args []string) (string, error) {
				data, err := export.JSON(a.net, a.cfg.Export.GraphName)
				return string(data), err
			}),
		newHighlightExportCmd(a),
		newPartitionExportCmd(a),
	)
	return exportCmd
}

// outputPath resolves a user supplied output against export.output_dir.
func (a *app) outputPath(output, fallback string) string {
	if output == "" {
		output = fallback
	}
	if output == "-" || filepath.IsAbs(output) {
		return output
	}
	return filepath.Join(a.cfg.Export.OutputDir, output)
}

// writeOutput writes content to path, or to stdout when path is "-".
func (a *app) writeOutput(path, content string) error {
	if path == "-" {
		a.printer().Text(content)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// exportFiles runs one export inside a span, records metrics and the audit
// event, and reports the written files.
func (a *app) exportFiles(ctx context.Context, format, target string, write func(ctx context.Context) ([]string, error)) error {
	ctx, span := observability.StartExportSpan(ctx, format)
	defer span.End()

	paths, err := write(ctx)
	a.audit.LogExport(ctx, format, paths, err)
	if err != nil {
		observability.RecordError(span, err)
		return err
	}

	observability.RecordExportResult(span, len(paths), target)
	a.metrics.RecordExport(format, len(paths))
	a.log.Debug("export written", zap.String("format", format), zap.Strings("paths", paths))

	p := a.printer()
	for _, path := range paths {
		if path != "-" {
			p.Success("wrote %s", path)
		}
	}
	return nil
}

func newSingleExportCmd(a *app, format, short, fallback string, render func(args []string) (string, error)) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   format,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.outputPath(output, fallback)
			return a.exportFiles(cmd.Context(), format, path, func(ctx context.Context) ([]string, error) {
				content, err := render(args)
				if err != nil {
					return nil, err
				}
				if err := a.writeOutput(path, content); err != nil {
					return nil, err
				}
				return []string{path}, nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", fmt.Sprintf("Output file, \"-\" for stdout (default %s)", fallback))
	return cmd
}

func newHighlightExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "highlight <a> <b>",
		Short: "Export the network with the mutual connections of two members highlighted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.outputPath(output, defaultHighlightFile)
			return a.exportFiles(cmd.Context(), "highlight", path, func(ctx context.Context) ([]string, error) {
				content, err := export.HighlightDOT(a.net, args[0], args[1])
				if err != nil {
					return nil, err
				}
				if err := a.writeOutput(path, content); err != nil {
					return nil, err
				}
				return []string{path}, nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", fmt.Sprintf("Output file, \"-\" for stdout (default %s)", defaultHighlightFile))
	return cmd
}

// partitionFile names the file for one attribute value. Path separators in
// the value are replaced so every file lands in dir.
func partitionFile(dir, value string) string {
	name := strings.NewReplacer("/", "_", `\`, "_").Replace(value)
	return filepath.Join(dir, name+partitionFileSuffix)
}

func newPartitionExportCmd(a *app) *cobra.Command {
	var (
		by  string
		dir string
	)

	cmd := &cobra.Command{
		Use:   "partition",
		Short: "Export one Graphviz graph per attribute value, e.g. per department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.cfg.Export.OutputDir
			}
			key := parseKey(by)

			return a.exportFiles(cmd.Context(), "partition", dir, func(ctx context.Context) ([]string, error) {
				partitions := export.PartitionDOT(a.net, key)
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("create output directory: %w", err)
				}

				paths := make([]string, len(partitions))
				g, gctx := errgroup.WithContext(ctx)
				g.SetLimit(partitionWriters)
				for i, part := range partitions {
					paths[i] = partitionFile(dir, part.Value)
					g.Go(func() error {
						if err := gctx.Err(); err != nil {
							return err
						}
						if err := os.WriteFile(paths[i], []byte(part.DOT), 0o644); err != nil {
							return fmt.Errorf("write %s: %w", paths[i], err)
						}
						return nil
					})
				}
				if err := g.Wait(); err != nil {
					return nil, err
				}
				return paths, nil
			})
		},
	}

	cmd.Flags().StringVar(&by, "by", "department", "Attribute to partition on")
	cmd.Flags().StringVar(&dir, "dir", "", "Output directory (default export.output_dir)")
	return cmd
}
