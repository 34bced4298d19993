package writer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"heatmapflow/logger"
	"heatmapflow/models"
)

// ErrNoData marks an artifact that was skipped because there was nothing to
// write. Writers never return it; the upload stage uses it to skip paths.
var ErrNoData = errors.New("no data to write")

// CSVWriter exports records as CSV with a header row taken from the csv
// struct tags.
type CSVWriter struct {
	log *logger.Log
}

func NewCSVWriter() *CSVWriter {
	return &CSVWriter{log: logger.GetLogger()}
}

// Write exports raw records to path and returns the number of rows written.
// Empty input touches nothing and returns 0 with a nil error.
func (w *CSVWriter) Write(records []models.RawRecord, path string) (int, error) {
	return writeRows(w, records, path, "raw")
}

// WriteNormalized exports records including their derived change columns.
func (w *CSVWriter) WriteNormalized(records []models.NormalizedRecord, path string) (int, error) {
	return writeRows(w, records, path, "normalized")
}

func writeRows[T any](w *CSVWriter, rows []T, path, kind string) (int, error) {
	start := time.Now()
	log := w.log.WithComponent("csv_writer").WithFields(logger.Fields{
		"path": path,
		"kind": kind,
	})

	if len(rows) == 0 {
		log.Info("no data to save")
		return 0, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.WithError(err).Error("failed to create csv directory")
			return 0, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		log.WithError(err).Error("failed to create csv file")
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		f.Close()
		log.WithError(err).Error("failed to write csv")
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", path, err)
	}

	logger.LogPerformanceEntry(log, "csv_writer", "write", time.Since(start), logger.Fields{
		"rows": len(rows),
	})
	log.WithFields(logger.Fields{"rows": len(rows)}).Info("data saved")
	return len(rows), nil
}
