package writer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"heatmapflow/config"
	"heatmapflow/logger"
	"heatmapflow/models"
	"heatmapflow/processor"
)

//go:embed templates/heatmap.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(template.ParseFS(templateFS, "templates/heatmap.html.tmpl"))

type tileView struct {
	Symbol string
	Name   string
	Change string
	Price  string
	Class  models.ChangeClass
	Style  template.CSS
}

type legendView struct {
	Label string
	Style template.CSS
}

type reportView struct {
	Title       string
	TitleStamp  string
	HeaderStamp string
	FooterStamp string
	SymbolURL   string
	Summary     models.Summary
	Tiles       []tileView
	Legend      []legendView
}

var legend = []struct {
	label string
	class models.ChangeClass
}{
	{"Positive Change", models.ChangePositive},
	{"Negative Change", models.ChangeNegative},
	{"No Change", models.ChangeNeutral},
}

// HTMLWriter renders normalized records into a single self-contained HTML page.
type HTMLWriter struct {
	cfg config.OutputConfig
	log *logger.Log
	now func() time.Time
}

func NewHTMLWriter(cfg config.OutputConfig) *HTMLWriter {
	return &HTMLWriter{
		cfg: cfg,
		log: logger.GetLogger(),
		now: time.Now,
	}
}

// WithClock replaces the timestamp source, mainly for reproducible output.
func (w *HTMLWriter) WithClock(now func() time.Time) *HTMLWriter {
	w.now = now
	return w
}

func (w *HTMLWriter) view(records []models.NormalizedRecord) reportView {
	generated := w.now()

	tiles := make([]tileView, 0, len(records))
	for _, r := range records {
		tiles = append(tiles, tileView{
			Symbol: r.Symbol,
			Name:   r.Name,
			Change: r.Change,
			Price:  r.Price,
			Class:  r.ChangeClass,
			Style:  template.CSS(fmt.Sprintf("--tile-color: %s; --accent-color: %s;", r.TileColor, r.AccentColor)),
		})
	}

	legendViews := make([]legendView, 0, len(legend))
	for _, l := range legend {
		legendViews = append(legendViews, legendView{
			Label: l.label,
			Style: template.CSS("background: " + processor.LegendColor(l.class) + ";"),
		})
	}

	title := w.cfg.Title
	if title == "" {
		title = "Stock Market Heatmap"
	}

	return reportView{
		Title:       title,
		TitleStamp:  generated.Format("2006-01-02 15:04"),
		HeaderStamp: generated.Format("January 02, 2006 at 03:04 PM"),
		FooterStamp: generated.Format("2006-01-02 15:04:05"),
		SymbolURL:   w.cfg.SymbolURL,
		Summary:     models.Summarize(records),
		Tiles:       tiles,
		Legend:      legendViews,
	}
}

// RenderTo writes the report for records to out. Records are rendered in
// the order given.
func (w *HTMLWriter) RenderTo(out io.Writer, records []models.NormalizedRecord) error {
	if err := reportTemplate.Execute(out, w.view(records)); err != nil {
		return fmt.Errorf("failed to render heatmap report: %w", err)
	}
	return nil
}

// Render writes the report to path, creating parent directories, and
// returns the path. On failure it returns an empty path and the error.
func (w *HTMLWriter) Render(records []models.NormalizedRecord, path string) (string, error) {
	start := time.Now()
	log := w.log.WithComponent("html_writer").WithFields(logger.Fields{
		"path":    path,
		"records": len(records),
	})

	var buf bytes.Buffer
	if err := w.RenderTo(&buf, records); err != nil {
		log.WithError(err).Error("failed to render report")
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.WithError(err).Error("failed to create report directory")
			return "", fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		log.WithError(err).Error("failed to save report")
		return "", fmt.Errorf("failed to save report %s: %w", path, err)
	}

	logger.LogPerformanceEntry(log, "html_writer", "render", time.Since(start), logger.Fields{
		"bytes": buf.Len(),
	})
	log.Info("heatmap report saved")
	return path, nil
}
