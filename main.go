// Package main provides the condec binary: it renders, checks, watches and
// interactively edits ConDec declarative process diagrams.
package main

import (
	"condec/config"
	"condec/diagram"
	"condec/importer"
	"condec/metrics"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
	appName = "condec"
)

// errViolations makes `check` exit non-zero without printing an error line;
// the report has already been written.
var errViolations = errors.New("constraint violations found")

func main() {
	if err := rootCmd().Execute(); err != nil {
		if !errors.Is(err, errViolations) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app is the state shared by every subcommand once configuration is loaded.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *importer.Registry
	metrics  *metrics.Collector
	promReg  *prometheus.Registry
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)
	a := &app{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "ConDec declarative process diagrams",
		Long: `condec works with ConDec diagrams: activities with cardinality
constraints joined by declarative relations such as response, precedence and
exclusive choice.

Diagrams are read from the native JSON document or from Declare TXT and XML
models, which are laid out automatically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, configPath, logLevel)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(renderCmd(a), checkCmd(a), editCmd(a), watchCmd(a), formatsCmd(a), versionCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Printing the version must not depend on a readable config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	}
}

func (a *app) init(cmd *cobra.Command, configPath, logLevel string) error {
	cfg, err := config.NewLoader(nil).Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	a.cfg = cfg
	a.logger = cfg.NewLogger(cmd.ErrOrStderr())
	a.registry = importer.NewRegistry(cfg.LayoutEngine())
	a.promReg = prometheus.NewRegistry()
	a.metrics = metrics.NewCollector(a.promReg)
	return nil
}

// importFile imports path and records the attempt.
func (a *app) importFile(path, format string) (*diagram.Diagram, error) {
	d, name, err := a.registry.ImportFile(path, format)
	a.metrics.ObserveImport(name, err)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	a.logger.Info("diagram imported",
		slog.String("path", path),
		slog.String("format", name),
		slog.Int("nodes", len(d.Nodes)),
		slog.Int("relations", len(d.Relations)))
	return d, nil
}

// serveMetrics exposes the collector on addr until the returned function is
// called.
func (a *app) serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.promReg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server stopped", slog.String("error", err.Error()))
		}
	}()
	a.logger.Info("serving metrics", slog.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
