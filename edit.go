package main

import (
	"condec/diagram"
	"condec/editor"
	"condec/export"
	"condec/history"
	"condec/storage"
	"condec/terminal"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
)

// openScreen returns an initialised terminal screen. Tests replace it with a
// simulation screen.
var openScreen = func() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return screen, nil
}

// documentPath is where an edited file is saved: JSON files in place, any
// other input next to itself with a .json suffix.
func documentPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return path
	}
	return path + ".json"
}

func saveDocument(path string) func(*diagram.Diagram) error {
	exporter := export.NewJSONExporter()
	return func(d *diagram.Diagram) error {
		return writeExport(exporter, d, path)
	}
}

func editCmd(a *app) *cobra.Command {
	var (
		inputFormat string
		logFile     string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "edit [file]",
		Short: "Edit a diagram in the terminal",
		Long: `edit opens the interactive editor. With a file argument the diagram is
imported from it and Ctrl+S writes the native JSON document back (to the same
path for .json files, otherwise to <file>.json). Without an argument the
diagram is kept in the local store and saved after every change.

Keys: a add, e rename, k constraint, c connect, n n-ary choice, t relation
type, r reverse, l label, s/h tools, Delete remove, Ctrl+Z/Ctrl+Y undo/redo,
? help, q quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Anything written to stderr would corrupt the screen.
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				logger = a.cfg.NewLogger(f)
			}
			a.logger = logger

			var (
				d    *diagram.Diagram
				save func(*diagram.Diagram) error
			)
			if len(args) == 1 {
				imported, err := a.importFile(args[0], inputFormat)
				if err != nil {
					return err
				}
				d = imported
				save = saveDocument(documentPath(args[0]))
			} else {
				store, err := storage.Open(a.cfg.StoreConfig(logger))
				if err != nil {
					return err
				}
				defer store.Close()
				d = store.Load()
				save = store.Save
			}

			if metricsAddr != "" {
				defer a.serveMetrics(metricsAddr)()
			}

			s := editor.NewSession(d, a.cfg.SessionOptions(logger))
			detach := a.metrics.Attach(s)
			defer detach()
			if len(args) == 0 {
				// Autosave committed commands; drag frames are not history events.
				unsubscribe := s.History().Subscribe(func(history.Event, history.Command) {
					if err := save(s.Diagram()); err != nil {
						logger.Warn("autosave failed", slog.String("error", err.Error()))
					}
				})
				defer unsubscribe()
			}

			screen, err := openScreen()
			if err != nil {
				return fmt.Errorf("open terminal: %w", err)
			}
			err = terminal.Run(screen, s, terminal.Options{Save: save, Logger: logger})
			screen.Fini()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				if err := save(s.Diagram()); err != nil {
					return fmt.Errorf("save diagram: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "Input format (auto-detect if not specified)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Append logs to this file while editing")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while editing")
	return cmd
}
