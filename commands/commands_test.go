package commands

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heatmapflow/models"
	"heatmapflow/pipeline"
	"heatmapflow/processor"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRenderCommandFromCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "heatmap_data.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("symbol,name,change,price,color,area\n"+
		"AAA,AAA,+5.00%,10.00,,100\n"+
		"BBB,BBB,-3.20%,20.00,,400\n"), 0o644))
	cfgPath := writeConfig(t, dir, "logging:\n  level: warn\n")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "render", "--from", csvPath, "--output-dir", dir, "--html", "replay.html"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	f, err := os.Open(filepath.Join(dir, "replay.html"))
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)

	symbols := doc.Find(".stock-tile .stock-symbol")
	require.Equal(t, 2, symbols.Length())
	assert.Equal(t, "BBB", symbols.Eq(0).Text())
	assert.Equal(t, "AAA", symbols.Eq(1).Text())

	// render never rewrites the CSV it reads from
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "AAA,AAA,+5.00%")
}

func TestRenderCommandMissingCSV(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "logging:\n  level: error\n")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "render", "--from", filepath.Join(dir, "missing.csv"), "--output-dir", dir})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)

	// the no-data report is still produced
	_, statErr := os.Stat(filepath.Join(dir, "heatmap_no_data.html"))
	assert.NoError(t, statErr)
}

func TestDetailsCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "NASDAQ:AAPL" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"name":"Apple Inc.","close":190.5,"change":1.25}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "logging:\n  level: error\ndetails:\n  url: "+srv.URL+"/symbol\n")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "details", "NASDAQ:AAPL"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	cmd = newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "details", "NYSE:NOPE"})
	require.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestDetailsCommandRequiresSymbol(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"details"})
	require.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestPrintSummary(t *testing.T) {
	raws := make([]models.RawRecord, 0, 12)
	for i := 0; i < 12; i++ {
		raws = append(raws, models.RawRecord{Symbol: string(rune('A' + i)), Change: "+1%", Area: float64(100 - i)})
	}
	records := processor.NewNormalizer().Normalize(raws)

	var buf bytes.Buffer
	printSummary(&buf, &pipeline.Result{
		RunID:      "run-1",
		Market:     "stock",
		Screener:   "america",
		Records:    records,
		Summary:    models.Summarize(records),
		ReportPath: "heatmap_output.html",
		ExtractErr: errors.New("boom"),
		Duration:   1500 * time.Millisecond,
	})

	out := strings.ToLower(buf.String())
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "stock/america")
	assert.Contains(t, out, "heatmap_output.html")
	assert.Contains(t, out, "total stocks")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "+2 more")
}

func TestPrintSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &pipeline.Result{RunID: "run-2"})
	out := strings.ToLower(buf.String())
	assert.Contains(t, out, "run-2")
	assert.NotContains(t, out, "symbol")
}
