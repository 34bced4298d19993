package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"heatmapflow/pipeline"
)

const topTiles = 10

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// printSummary renders the end-of-run overview and the largest tiles.
func printSummary(out io.Writer, res *pipeline.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle("heatmap run %s", res.RunID)
	t.AppendRows([]table.Row{
		{"Market", fmt.Sprintf("%s/%s", res.Market, res.Screener)},
		{"Total Stocks", res.Summary.Total},
		{"Gainers", res.Summary.Positive},
		{"Losers", res.Summary.Negative},
		{"Unchanged", res.Summary.Neutral},
		{"Report", orDash(res.ReportPath)},
		{"CSV", orDash(res.CSVPath)},
	})
	if res.ParquetPath != "" {
		t.AppendRow(table.Row{"Parquet", res.ParquetPath})
	}
	if len(res.Uploaded) > 0 {
		t.AppendRow(table.Row{"Uploaded", len(res.Uploaded)})
	}
	if res.ExtractErr != nil {
		t.AppendRow(table.Row{"Extraction", res.ExtractErr.Error()})
	}
	t.AppendRow(table.Row{"Duration", res.Duration.Round(time.Millisecond).String()})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(res.Records) == 0 {
		return
	}

	top := table.NewWriter()
	top.SetOutputMirror(out)
	top.AppendHeader(table.Row{"#", "Symbol", "Name", "Change", "Price"})
	for i, r := range res.Records {
		if i == topTiles {
			break
		}
		top.AppendRow(table.Row{i + 1, r.Symbol, r.Name, r.Change, r.Price})
	}
	if len(res.Records) > topTiles {
		top.AppendFooter(table.Row{"", fmt.Sprintf("+%d more", len(res.Records)-topTiles)})
	}
	top.SetStyle(table.StyleRounded)
	top.Render()
}
