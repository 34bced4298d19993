package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"heatmapflow/config"
	"heatmapflow/logger"
	"heatmapflow/pipeline"
	"heatmapflow/reader/tradingview"
	"heatmapflow/writer"
)

type runFlags struct {
	market    string
	screener  string
	headless  bool
	outputDir string
	html      string
	csv       string
}

// apply copies every flag the user actually set onto cfg.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("market") {
		cfg.Source.Market = f.market
	}
	if flags.Changed("screener") {
		cfg.Source.Screener = f.screener
	}
	if flags.Changed("headless") {
		cfg.Source.Headless = f.headless
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir = f.outputDir
	}
	if flags.Changed("html") {
		cfg.Output.HTML = f.html
	}
	if flags.Changed("csv") {
		cfg.Output.CSV = f.csv
	}
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [--market stock] [--screener america]",
		Short: "Scrapes the heatmap and writes the HTML report and CSV export.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			flags.apply(cmd, cfg)
			log := logger.GetLogger().WithComponent("main")
			logger.EnsureDashboard(cmd.Context())

			scraper := tradingview.NewScraper(cfg.Source)
			defer func() {
				if err := scraper.Close(); err != nil {
					log.WithError(err).Warn("failed to close browser")
				}
				log.Info("scraper closed")
			}()

			var pipelineOpts []pipeline.Option
			if cfg.Storage.S3.Enabled {
				uploader, err := writer.NewS3Uploader(cmd.Context(), cfg.Storage.S3, cfg.Heatmapflow.Version)
				if err != nil {
					log.WithError(err).Warn("artifact upload disabled")
				} else {
					pipelineOpts = append(pipelineOpts, pipeline.WithUploader(uploader))
				}
			}

			res := pipeline.New(cfg, scraper, pipelineOpts...).Run(cmd.Context(), pipeline.RunOptions{
				Market:   cfg.Source.Market,
				Screener: cfg.Source.Screener,
			})
			printSummary(os.Stdout, res)

			if res.ReportPath == "" {
				return fmt.Errorf("report generation failed")
			}
			return nil
		},
	}

	defaults := config.Default()
	cmd.Flags().StringVar(&flags.market, "market", defaults.Source.Market, "Heatmap market: stock, crypto, etf")
	cmd.Flags().StringVar(&flags.screener, "screener", defaults.Source.Screener, "Heatmap dataset: america, global, ...")
	cmd.Flags().BoolVar(&flags.headless, "headless", defaults.Source.Headless, "Run Chrome without a window")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Directory for all artifacts")
	cmd.Flags().StringVar(&flags.html, "html", defaults.Output.HTML, "Report file name")
	cmd.Flags().StringVar(&flags.csv, "csv", defaults.Output.CSV, "CSV export file name")
	return cmd
}
