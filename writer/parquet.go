package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"heatmapflow/config"
	"heatmapflow/logger"
	"heatmapflow/models"
)

// parquetRecord is the columnar layout of one normalized heatmap tile.
type parquetRecord struct {
	RunID       string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	CapturedAt  int64   `parquet:"name=captured_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Symbol      string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name        string  `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Change      string  `parquet:"name=change, type=BYTE_ARRAY, convertedtype=UTF8"`
	ChangeValue float64 `parquet:"name=change_value, type=DOUBLE"`
	Price       string  `parquet:"name=price, type=BYTE_ARRAY, convertedtype=UTF8"`
	Color       string  `parquet:"name=color, type=BYTE_ARRAY, convertedtype=UTF8"`
	Area        float64 `parquet:"name=area, type=DOUBLE"`
	TileColor   string  `parquet:"name=tile_color, type=BYTE_ARRAY, convertedtype=UTF8"`
	AccentColor string  `parquet:"name=accent_color, type=BYTE_ARRAY, convertedtype=UTF8"`
	ChangeClass string  `parquet:"name=change_class, type=BYTE_ARRAY, convertedtype=UTF8"`
}

type ParquetWriter struct {
	cfg config.ParquetConfig
	log *logger.Log
}

func NewParquetWriter(cfg config.ParquetConfig) *ParquetWriter {
	return &ParquetWriter{cfg: cfg, log: logger.GetLogger()}
}

func compressionCodec(name string) parquet.CompressionCodec {
	switch name {
	case "snappy":
		return parquet.CompressionCodec_SNAPPY
	case "gzip":
		return parquet.CompressionCodec_GZIP
	default:
		return parquet.CompressionCodec_UNCOMPRESSED
	}
}

// Write stores records as a parquet file at path, tagging every row with
// runID and capturedAt. Empty input touches nothing and returns 0.
func (w *ParquetWriter) Write(records []models.NormalizedRecord, path, runID string, capturedAt time.Time) (int, error) {
	start := time.Now()
	log := w.log.WithComponent("parquet_writer").WithFields(logger.Fields{
		"path":        path,
		"compression": w.cfg.Compression,
	})

	if len(records) == 0 {
		log.Info("no data to save")
		return 0, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		log.WithError(err).Error("failed to create parquet file")
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}

	pw, err := writer.NewParquetWriter(fw, new(parquetRecord), 4)
	if err != nil {
		fw.Close()
		return 0, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = compressionCodec(w.cfg.Compression)

	captured := capturedAt.UnixMilli()
	for _, r := range records {
		row := parquetRecord{
			RunID:       runID,
			CapturedAt:  captured,
			Symbol:      r.Symbol,
			Name:        r.Name,
			Change:      r.Change,
			ChangeValue: r.ChangeValue,
			Price:       r.Price,
			Color:       r.Color,
			Area:        r.Area,
			TileColor:   r.TileColor,
			AccentColor: r.AccentColor,
			ChangeClass: string(r.ChangeClass),
		}
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			fw.Close()
			return 0, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return 0, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}
	if err := fw.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", path, err)
	}

	logger.LogPerformanceEntry(log, "parquet_writer", "write", time.Since(start), logger.Fields{
		"rows": len(records),
	})
	log.WithFields(logger.Fields{"rows": len(records)}).Info("parquet file created successfully")
	return len(records), nil
}
