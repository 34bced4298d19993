package reader

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"heatmapflow/logger"
	"heatmapflow/models"
)

// csvRow stages a CSV line as plain text so a hand-edited or partially
// filled export never fails the whole file on one bad area cell.
type csvRow struct {
	Symbol string `csv:"symbol"`
	Name   string `csv:"name"`
	Change string `csv:"change"`
	Price  string `csv:"price"`
	Color  string `csv:"color"`
	Area   string `csv:"area"`
}

// CSVSource replays a previously exported heatmap CSV as an extraction.
type CSVSource struct {
	path string
	log  *logger.Log
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path, log: logger.GetLogger()}
}

// Extract reads every row of the file. market and screener only label errors.
func (s *CSVSource) Extract(ctx context.Context, market, screener string) ([]models.RawRecord, error) {
	start := time.Now()
	log := s.log.WithComponent("csv_source").WithFields(logger.Fields{"path": s.path})

	if err := ctx.Err(); err != nil {
		return nil, NewExtractionError(market, screener, "open", err)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, NewExtractionError(market, screener, "open", err)
	}
	defer f.Close()

	var rows []*csvRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		// gocsv reports an empty file as an error; treat it as no data.
		if stat, statErr := f.Stat(); statErr == nil && stat.Size() == 0 {
			log.Warn("csv source is empty")
			return []models.RawRecord{}, nil
		}
		return nil, NewExtractionError(market, screener, "decode", fmt.Errorf("failed to parse %s: %w", s.path, err))
	}

	records := make([]models.RawRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRawRecord())
	}

	logger.LogPerformanceEntry(log, "csv_source", "extract", time.Since(start), logger.Fields{
		"records": len(records),
	})
	return records, nil
}

func (s *CSVSource) Close() error {
	return nil
}

func (r *csvRow) toRawRecord() models.RawRecord {
	area := models.DefaultArea
	if v, err := strconv.ParseFloat(strings.TrimSpace(r.Area), 64); err == nil {
		area = v
	}
	return models.RawRecord{
		Symbol: r.Symbol,
		Name:   r.Name,
		Change: r.Change,
		Price:  r.Price,
		Color:  r.Color,
		Area:   area,
	}
}
