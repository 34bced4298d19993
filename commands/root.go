package commands

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"heatmapflow/config"
	"heatmapflow/logger"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "heatmapflow",
		Short:         "heatmapflow scrapes the TradingView stock heatmap into an HTML report and a CSV export.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Override the configured log format (text or json)")

	run := newRunCmd(opts)
	rootCmd.AddCommand(run, newRenderCmd(opts), newDetailsCmd(opts))

	// A bare invocation runs the pipeline with default flags.
	rootCmd.Flags().AddFlagSet(run.Flags())
	rootCmd.RunE = run.RunE

	return rootCmd
}

func (o *rootOptions) setup(ctx context.Context) error {
	log := logger.GetLogger()

	path := config.ResolvePath(o.configPath)
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level, format := cfg.Logging.Level, cfg.Logging.Format
	if o.logLevel != "" {
		level = o.logLevel
	}
	if o.logFormat != "" {
		format = o.logFormat
	}
	if err := log.Configure(level, format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		return fmt.Errorf("failed to configure logger: %w", err)
	}

	if cfg.Metrics.CloudWatch.Enabled {
		logger.InitCloudWatch(ctx, cfg.Metrics.CloudWatch.Region, cfg.Metrics.CloudWatch.Namespace, cfg.Metrics.CloudWatch.Dashboard)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Heatmapflow.Name,
		"version":     cfg.Heatmapflow.Version,
		"config":      path,
		"environment": config.AppEnvironment(),
	}).Info("starting heatmapflow")

	o.cfg = cfg
	return nil
}

// ExecuteContext runs the CLI and returns the process exit code. A panic
// anywhere below is reported with its stack trace after deferred cleanup
// (such as closing the browser) has run.
func ExecuteContext(ctx context.Context) (code int) {
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().WithComponent("main").WithFields(logger.Fields{
				"panic": fmt.Sprint(r),
			}).Error("unhandled failure")
			fmt.Fprintf(os.Stderr, "CRITICAL ERROR: %v\n%s", r, debug.Stack())
			code = 1
		}
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
