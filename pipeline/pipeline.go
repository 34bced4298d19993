// Package pipeline runs one heatmap snapshot end to end: extract, normalize,
// then export and render.
package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"heatmapflow/config"
	"heatmapflow/logger"
	"heatmapflow/models"
	"heatmapflow/processor"
	"heatmapflow/reader"
	"heatmapflow/writer"
)

// Uploader publishes finished artifacts. *writer.S3Uploader satisfies it.
type Uploader interface {
	KeyPrefix(market, screener, runID string, at time.Time) string
	Upload(ctx context.Context, keyPrefix, path string) (string, error)
}

// RunOptions tune a single run. Empty market and screener use the configured ones.
type RunOptions struct {
	Market   string
	Screener string
	// SkipCSV leaves the tabular export out, e.g. when re-rendering from a CSV.
	SkipCSV bool
}

// Result describes what one run produced. Empty paths mean the artifact was
// not written.
type Result struct {
	RunID       string
	Market      string
	Screener    string
	Records     []models.NormalizedRecord
	Summary     models.Summary
	ReportPath  string
	CSVPath     string
	CSVRows     int
	ParquetPath string
	Uploaded    []string
	ExtractErr  error
	StageErrs   []error
	StartedAt   time.Time
	Duration    time.Duration

	// FieldsDefaulted counts record fields that were missing or unparseable
	// and fell back to a default during normalization.
	FieldsDefaulted int64
}

// Failed reports whether any output stage returned an error.
func (r *Result) Failed() bool {
	return len(r.StageErrs) > 0
}

type Pipeline struct {
	cfg        *config.Config
	extractor  reader.Extractor
	normalizer *processor.Normalizer
	html       *writer.HTMLWriter
	csv        *writer.CSVWriter
	parquet    *writer.ParquetWriter
	uploader   Uploader
	log        *logger.Log
	now        func() time.Time
	newRunID   func() string
}

type Option func(*Pipeline)

// WithUploader publishes every produced artifact after the run.
func WithUploader(u Uploader) Option {
	return func(p *Pipeline) { p.uploader = u }
}

// WithClock fixes the time source used for report stamps and run timing.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithRunID replaces the uuid run id generator.
func WithRunID(fn func() string) Option {
	return func(p *Pipeline) { p.newRunID = fn }
}

func New(cfg *config.Config, extractor reader.Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:        cfg,
		extractor:  extractor,
		normalizer: processor.NewNormalizer(),
		csv:        writer.NewCSVWriter(),
		log:        logger.GetLogger(),
		now:        time.Now,
		newRunID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.html = writer.NewHTMLWriter(cfg.Output).WithClock(p.now)
	if cfg.Output.Parquet.Enabled {
		p.parquet = writer.NewParquetWriter(cfg.Output.Parquet)
	}
	return p
}

func (p *Pipeline) outputPath(name string) string {
	if p.cfg.Output.Dir == "" {
		return name
	}
	return filepath.Join(p.cfg.Output.Dir, name)
}

// Run executes one snapshot. Extraction failure is logged and the run goes
// on with no records, producing the no-data report. Output stages are
// independent: a failed CSV export does not stop the report.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) *Result {
	start := time.Now()
	res := &Result{
		RunID:     p.newRunID(),
		Market:    opts.Market,
		Screener:  opts.Screener,
		StartedAt: p.now(),
	}
	if res.Market == "" {
		res.Market = p.cfg.Source.Market
	}
	if res.Screener == "" {
		res.Screener = p.cfg.Source.Screener
	}

	log := p.log.WithRun(res.RunID).WithComponent("pipeline").WithFields(logger.Fields{
		"market":   res.Market,
		"screener": res.Screener,
	})
	log.Info("starting heatmap run")

	raws := p.extract(ctx, log, res)
	_, defaultedBefore := p.normalizer.Stats()
	res.Records = p.normalizer.Normalize(raws)
	_, defaultedAfter := p.normalizer.Stats()
	res.FieldsDefaulted = defaultedAfter - defaultedBefore
	res.Summary = models.Summarize(res.Records)

	if len(res.Records) > 0 && !opts.SkipCSV {
		p.exportCSV(log, raws, res)
	}

	p.render(log, res)

	if p.parquet != nil && len(res.Records) > 0 {
		p.exportParquet(log, res)
	}

	if p.uploader != nil {
		p.upload(ctx, log, res)
	}

	res.Duration = time.Since(start)
	p.report(ctx, log, res)
	return res
}

func (p *Pipeline) extract(ctx context.Context, log *logger.Entry, res *Result) []models.RawRecord {
	start := time.Now()
	raws, err := p.extractor.Extract(ctx, res.Market, res.Screener)
	if err != nil {
		res.ExtractErr = err
		entry := log.WithError(err)
		var extractErr *reader.ExtractionError
		if errors.As(err, &extractErr) {
			entry = entry.WithFields(logger.Fields{"stage": extractErr.Stage})
		}
		entry.Error("heatmap extraction failed; continuing with no data")
		return nil
	}

	logger.LogPerformanceEntry(log, "pipeline", "extract", time.Since(start), logger.Fields{
		"records": len(raws),
	})
	if len(raws) == 0 {
		log.Warn("no heatmap data found")
	}
	return raws
}

func (p *Pipeline) exportCSV(log *logger.Entry, raws []models.RawRecord, res *Result) {
	path := p.outputPath(p.cfg.Output.CSV)
	rows, err := p.csv.Write(raws, path)
	if err != nil {
		log.WithError(err).Error("csv export failed")
		res.StageErrs = append(res.StageErrs, err)
		return
	}
	if rows > 0 {
		res.CSVPath = path
		res.CSVRows = rows
	}
}

func (p *Pipeline) render(log *logger.Entry, res *Result) {
	name := p.cfg.Output.HTML
	if len(res.Records) == 0 {
		name = p.cfg.Output.NoDataHTML
	}
	path, err := p.html.Render(res.Records, p.outputPath(name))
	if err != nil {
		log.WithError(err).Error("report generation failed")
		res.StageErrs = append(res.StageErrs, err)
		return
	}
	res.ReportPath = path
}

func (p *Pipeline) exportParquet(log *logger.Entry, res *Result) {
	path := p.outputPath(p.cfg.Output.Parquet.File)
	rows, err := p.parquet.Write(res.Records, path, res.RunID, res.StartedAt)
	if err != nil {
		log.WithError(err).Error("parquet export failed")
		res.StageErrs = append(res.StageErrs, err)
		return
	}
	if rows > 0 {
		res.ParquetPath = path
	}
}

func (p *Pipeline) upload(ctx context.Context, log *logger.Entry, res *Result) {
	prefix := p.uploader.KeyPrefix(res.Market, res.Screener, res.RunID, res.StartedAt)
	for _, path := range []string{res.ReportPath, res.CSVPath, res.ParquetPath} {
		key, err := p.uploader.Upload(ctx, prefix, path)
		if errors.Is(err, writer.ErrNoData) {
			continue
		}
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"path": path}).Error("artifact upload failed")
			res.StageErrs = append(res.StageErrs, err)
			continue
		}
		res.Uploaded = append(res.Uploaded, key)
	}
}

func (p *Pipeline) report(ctx context.Context, log *logger.Entry, res *Result) {
	log.LogMetric("pipeline", "run_duration_ms", float64(res.Duration.Nanoseconds())/1e6, "gauge", logger.Fields{
		"market":   res.Market,
		"screener": res.Screener,
	})

	logger.LogRunReport(ctx, p.log, res.RunID, map[string]string{
		"market":   res.Market,
		"screener": res.Screener,
	}, map[string]float64{
		"records_extracted": float64(res.Summary.Total),
		"gainers":           float64(res.Summary.Positive),
		"losers":            float64(res.Summary.Negative),
		"unchanged":         float64(res.Summary.Neutral),
		"fields_defaulted":  float64(res.FieldsDefaulted),
	})

	log.WithFields(logger.Fields{
		"records":          res.Summary.Total,
		"fields_defaulted": res.FieldsDefaulted,
		"report_path":      res.ReportPath,
		"csv_path":         res.CSVPath,
		"duration_ms":      float64(res.Duration.Nanoseconds()) / 1e6,
	}).Info("heatmap run finished")
}
