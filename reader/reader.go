package reader

import (
	"context"
	"fmt"

	"heatmapflow/models"
)

// Extractor yields one snapshot of heatmap cells. An empty slice with a nil
// error means the source had no data.
type Extractor interface {
	Extract(ctx context.Context, market, screener string) ([]models.RawRecord, error)
	Close() error
}

// ExtractionError reports that a source could not produce records. The
// pipeline logs it and carries on with an empty record set.
type ExtractionError struct {
	Market   string
	Screener string
	Stage    string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s/%s failed at %s: %v", e.Market, e.Screener, e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError wraps err with the market, screener and stage it failed in.
func NewExtractionError(market, screener, stage string, err error) *ExtractionError {
	return &ExtractionError{Market: market, Screener: screener, Stage: stage, Err: err}
}
