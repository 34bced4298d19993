package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"heatmapflow/reader/scanner"
)

func newDetailsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "details SYMBOL...",
		Short: "Prints scanner quote details for one or more symbols, e.g. NASDAQ:AAPL.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			details := scanner.NewClient(opts.cfg.Details).Lookup(cmd.Context(), args)

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Symbol", "Name", "Close", "Change %", "Change", "Volume", "Market Cap"})
			for _, d := range details {
				t.AppendRow(table.Row{
					d.Symbol,
					d.Name,
					fmt.Sprintf("%.2f", d.Close),
					fmt.Sprintf("%+.2f%%", d.Change),
					fmt.Sprintf("%+.2f", d.ChangeAbs),
					fmt.Sprintf("%.0f", d.Volume),
					fmt.Sprintf("%.0f", d.MarketCap),
				})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()

			if len(details) == 0 {
				return fmt.Errorf("no details fetched for %d symbol(s)", len(args))
			}
			return nil
		},
	}
}
