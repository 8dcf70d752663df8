// Command rwstore-demo runs concurrent random clients against an in-memory
// rwstore and prints the final records.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/maloquacious/semver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/oshokin/xk6-rwstore/rwstore/store"
)

var version = semver.Version{Minor: 1, PreRelease: "alpha", Build: semver.Commit()}

// runFlags holds command line overrides for the scenario.
type runFlags struct {
	configPath  string
	clients     int
	operations  int
	maxReaders  int
	writeRatio  float64
	seed        uint64
	metricsAddr string
	logLevel    string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "rwstore-demo",
		Short:        "Drive concurrent readers and writers against an in-memory record store",
		SilenceUsage: true,
	}

	var flags runFlags

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Seed the store and run the random client workload",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd, flags)
		},
	}

	runCmd.Flags().StringVar(&flags.configPath, "config", "", "YAML scenario file (defaults to the built-in scenario)")
	runCmd.Flags().IntVar(&flags.clients, "clients", 0, "number of concurrent clients (overrides the scenario)")
	runCmd.Flags().IntVar(&flags.operations, "ops", 0, "operations per client (overrides the scenario)")
	runCmd.Flags().IntVar(&flags.maxReaders, "max-readers", 0, "concurrent readers allowed per record (overrides the scenario)")
	runCmd.Flags().Float64Var(&flags.writeRatio, "write-ratio", -1, "probability that an operation is a write (overrides the scenario)")
	runCmd.Flags().Uint64Var(&flags.seed, "seed", 0, "random seed for reproducible runs (overrides the scenario)")
	runCmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	runCmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}

	rootCmd.AddCommand(runCmd, versionCmd)

	return rootCmd
}

// applyOverrides copies explicitly set flags onto the scenario.
func (f runFlags) applyOverrides(cmd *cobra.Command, sc *Scenario) {
	if cmd.Flags().Changed("clients") {
		sc.Clients = f.clients
	}

	if cmd.Flags().Changed("ops") {
		sc.Operations = f.operations
	}

	if cmd.Flags().Changed("max-readers") {
		sc.MaxReaders = f.maxReaders
	}

	if cmd.Flags().Changed("write-ratio") {
		sc.WriteRatio = f.writeRatio
	}

	if cmd.Flags().Changed("seed") {
		sc.Seed = f.seed
	}
}

func runDemo(cmd *cobra.Command, flags runFlags) error {
	logger, err := newLogger(cmd.ErrOrStderr(), flags.logLevel)
	if err != nil {
		return err
	}

	scenario, err := LoadScenario(flags.configPath)
	if err != nil {
		return err
	}

	flags.applyOverrides(cmd, &scenario)

	if err := scenario.Validate(); err != nil {
		return err
	}

	cfg, err := scenario.StoreConfig()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	cfg.Logger = logger
	cfg.Registerer = registry

	s, err := store.New(cfg)
	if err != nil {
		return err
	}

	if err := seedStore(s, scenario); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if flags.metricsAddr != "" {
		shutdown := serveMetrics(flags.metricsAddr, registry, logger)
		defer shutdown()
	}

	logger.Info("starting clients",
		"records", len(scenario.Records),
		"clients", scenario.Clients,
		"operations", scenario.Operations,
		"write_ratio", scenario.WriteRatio,
		"max_readers", s.MaxReaders(),
	)

	report, err := runClients(ctx, s, scenario, logger)
	if err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}

	return printSummary(cmd.OutOrStdout(), s, report)
}

// serveMetrics exposes registry on addr until the returned function is called.
func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics server listening", "addr", addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(ctx)
	}
}
