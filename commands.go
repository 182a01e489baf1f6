package main

import (
	"bytes"
	"condec/diagram"
	"condec/export"
	"condec/importer"
	"condec/validation"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// outputFormat picks the export format: the flag when given, else the
// output file's extension, else JSON.
func outputFormat(flag, output string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if ext := filepath.Ext(output); ext != "" {
		if f, err := export.ParseFormat(ext); err == nil {
			return f, nil
		}
	}
	return export.FormatJSON, nil
}

func exportBytes(exporter export.Exporter, d *diagram.Diagram) ([]byte, error) {
	var buf bytes.Buffer
	if err := exporter.Export(d, &buf); err != nil {
		return nil, fmt.Errorf("%s export failed: %w", exporter.GetFormatName(), err)
	}
	return buf.Bytes(), nil
}

func renderCmd(a *app) *cobra.Command {
	var (
		format      string
		output      string
		inputFormat string
		toClipboard bool
	)

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Export a diagram as JSON, SVG or PNG",
		Example: `  condec render model.decl -o model.svg
  condec render orders.json -f png -o orders.png
  condec render model.txt --input-format declare-txt --clipboard`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := outputFormat(format, output)
			if err != nil {
				return err
			}
			if toClipboard && f == export.FormatPNG {
				return errors.New("--clipboard needs a text format (json or svg)")
			}
			exporter, err := export.NewExporter(f)
			if err != nil {
				return err
			}

			d, err := a.importFile(args[0], inputFormat)
			if err != nil {
				return err
			}
			data, err := exportBytes(exporter, d)
			if err != nil {
				return err
			}

			if toClipboard {
				if err := clipboard.WriteAll(string(data)); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				a.logger.Info("copied to clipboard", slog.String("format", string(f)))
			}

			switch {
			case output != "":
				if err := os.WriteFile(output, data, 0644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				a.logger.Info("diagram exported", slog.String("path", output), slog.String("format", string(f)))
			case !toClipboard:
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Export format: json, svg, png (default: from -o extension, else json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&inputFormat, "input-format", "", "Input format: json, declare-txt, declare-xml (auto-detect if not specified)")
	cmd.Flags().BoolVar(&toClipboard, "clipboard", false, "Copy the exported document to the clipboard")
	return cmd
}

var (
	reportTitle = lipgloss.NewStyle().Bold(true).Underline(true)
	reportOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	reportFail  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	reportName  = lipgloss.NewStyle().Bold(true).PaddingLeft(2)
	reportMsg   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).PaddingLeft(4)
)

// violationReport formats the result of checking one diagram.
func violationReport(path string, d *diagram.Diagram, violations []validation.Violation) string {
	var b strings.Builder
	b.WriteString(reportTitle.Render(path))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d activities, %d relations\n", len(d.Nodes), len(d.Relations))

	if len(violations) == 0 {
		b.WriteString(reportOK.Render("✓ all constraints satisfied"))
		b.WriteString("\n")
		return b.String()
	}

	noun := "violations"
	if len(violations) == 1 {
		noun = "violation"
	}
	b.WriteString(reportFail.Render(fmt.Sprintf("✗ %d constraint %s", len(violations), noun)))
	b.WriteString("\n")
	for _, v := range violations {
		name := v.Name
		if name == "" {
			name = v.NodeID
		}
		b.WriteString(reportName.Render(name))
		b.WriteString("\n")
		b.WriteString(reportMsg.Render(v.Result.Message))
		b.WriteString("\n")
	}
	return b.String()
}

func checkCmd(a *app) *cobra.Command {
	var inputFormat string

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Report activities whose constraints are violated",
		Long: `check evaluates every activity's cardinality and init constraint
against the relations that target it. It exits with status 1 when any
constraint is violated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.importFile(args[0], inputFormat)
			if err != nil {
				return err
			}
			violations := validation.Violations(d)
			a.metrics.ObserveDiagram(d)

			fmt.Fprint(cmd.OutOrStdout(), violationReport(args[0], d, violations))
			if len(violations) > 0 {
				return errViolations
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "Input format (auto-detect if not specified)")
	return cmd
}

func watchCmd(a *app) *cobra.Command {
	var (
		format      string
		output      string
		inputFormat string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-export a diagram every time its file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New("--output is required")
			}
			f, err := outputFormat(format, output)
			if err != nil {
				return err
			}
			exporter, err := export.NewExporter(f)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if metricsAddr != "" {
				defer a.serveMetrics(metricsAddr)()
			}

			label := inputFormat
			if label == "" {
				label = "auto"
			}
			err = a.registry.Watch(ctx, args[0], importer.WatchOptions{Format: inputFormat, Logger: a.logger},
				func(d *diagram.Diagram, err error) {
					a.metrics.ObserveImport(label, err)
					if err != nil {
						a.logger.Warn("import failed", slog.String("path", args[0]), slog.String("error", err.Error()))
						return
					}
					a.metrics.ObserveDiagram(d)
					if err := writeExport(exporter, d, output); err != nil {
						a.logger.Error("export failed", slog.String("path", output), slog.String("error", err.Error()))
						return
					}
					a.logger.Info("diagram exported",
						slog.String("path", output),
						slog.Int("violations", len(validation.Violations(d))))
				})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Export format (default: from -o extension)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, rewritten on every change")
	cmd.Flags().StringVar(&inputFormat, "input-format", "", "Input format (auto-detect if not specified)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

// writeExport writes d to path through a temporary file so readers never
// see a partial document.
func writeExport(exporter export.Exporter, d *diagram.Diagram, path string) error {
	data, err := exportBytes(exporter, d)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func formatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported import and export formats",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, reportTitle.Render("Import"))
			for _, name := range a.registry.GetAvailableFormats() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			fmt.Fprintln(out, reportTitle.Render("Export"))
			descriptions := export.GetFormatDescriptions()
			for _, f := range export.GetAvailableFormats() {
				fmt.Fprintf(out, "  %-6s %s\n", f, descriptions[f])
			}
		},
	}
}
