package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ahrav/outcmp/infrastructure/logging"
	"github.com/ahrav/outcmp/infrastructure/middleware"
	"github.com/ahrav/outcmp/infrastructure/strategies"
	"github.com/ahrav/outcmp/internal/application"
	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// errNotPassed is returned with --exit-code when an output did not match.
var errNotPassed = errors.New("outputs do not match")

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	logLevel    string
	logFormat   string
	workers     int
	earlyCancel bool
	metricsOut  string

	logger *slog.Logger
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "outcmp",
		Short: "Compare program output against expected output",
		Long: `outcmp decides whether a submitted program output is equivalent to the
expected output. Both texts are Unicode normalized and line endings are
unified, then a byte-exact check runs before a ranked set of lenient
strategies: TRIM_EOL, NORMALISE_WHITESPACE, CANONICAL_LITERAL, FLOAT_EPS,
and TOKEN_SET. The first strategy in that order to accept the pair wins.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(opts.logLevel, opts.logFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, or error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")
	flags.IntVar(&opts.workers, "workers", 0, "Strategy worker pool size (0 means twice the CPU count)")
	flags.BoolVar(&opts.earlyCancel, "early-cancel", false,
		"Cancel lower-priority strategies once a winner is known and truncate the trace after it")
	flags.StringVar(&opts.metricsOut, "metrics-out", "",
		"Write Prometheus metrics in text format to this file when the command finishes")

	cmd.AddCommand(newCompareCmd(opts))
	cmd.AddCommand(newGradeCmd(opts))
	cmd.AddCommand(newModesCmd(opts))

	return cmd
}

// engine bundles a comparator with the metrics registry it reports to.
type engine struct {
	comparator *application.Comparator
	registry   *prometheus.Registry
}

// newEngine builds a comparator from the global flags. strategyOptions
// configures individual strategies and may be nil.
func (o *globalOptions) newEngine(strategyOptions map[domain.Mode]map[string]any) (*engine, error) {
	e := &engine{}
	mws := []strategies.Middleware{strategies.TracingMiddleware()}
	compOpts := []application.Option{
		application.WithLogger(o.logger),
		application.WithWorkers(o.workers),
		application.WithEarlyCancel(o.earlyCancel),
	}

	if o.metricsOut != "" {
		e.registry = prometheus.NewRegistry()
		metrics := middleware.NewPrometheusMetrics(e.registry)
		mws = append(mws, strategies.MetricsMiddleware(metrics))
		compOpts = append(compOpts, application.WithMetrics(metrics))
	}

	registry, err := application.NewDefaultStrategyRegistry(strategyOptions, mws...)
	if err != nil {
		return nil, err
	}
	e.comparator, err = application.NewComparator(registry, compOpts...)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// flushMetrics writes collected metrics when --metrics-out was given.
func (o *globalOptions) flushMetrics(e *engine) error {
	if e.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(o.metricsOut, e.registry); err != nil {
		return ports.NewMetricsError(o.metricsOut, "write textfile", err)
	}
	return nil
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, errNotPassed):
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, "outcmp:", err)
		os.Exit(2)
	}
}
