package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"heatmapflow/pipeline"
	"heatmapflow/reader"
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var (
		from      string
		html      string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "render --from <heatmap_data.csv>",
		Short: "Re-renders the HTML report from a previously exported CSV, without a browser.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if from == "" {
				from = cfg.Output.CSV
			}
			if cmd.Flags().Changed("html") {
				cfg.Output.HTML = html
			}
			if cmd.Flags().Changed("output-dir") {
				cfg.Output.Dir = outputDir
			}
			cfg.Output.Parquet.Enabled = false

			source := reader.NewCSVSource(from)
			defer source.Close()

			res := pipeline.New(cfg, source).Run(cmd.Context(), pipeline.RunOptions{SkipCSV: true})
			printSummary(os.Stdout, res)

			if res.ExtractErr != nil {
				return fmt.Errorf("failed to read %s: %w", from, res.ExtractErr)
			}
			if res.ReportPath == "" {
				return fmt.Errorf("report generation failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "CSV file to render (defaults to the configured CSV output)")
	cmd.Flags().StringVar(&html, "html", "", "Report file name")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the report")
	return cmd
}
