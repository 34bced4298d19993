package tradingview

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"heatmapflow/config"
	"heatmapflow/models"
)

// HeatmapURL builds the heatmap page address for a market and screener,
// falling back to the configured ones when either is empty.
func HeatmapURL(cfg config.SourceConfig, market, screener string) string {
	if market == "" {
		market = cfg.Market
	}
	if screener == "" {
		screener = cfg.Screener
	}
	q := url.Values{}
	q.Set("color", "change")
	q.Set("dataset", screener)
	q.Set("group", cfg.Group)
	q.Set("size", cfg.SizeBy)
	return fmt.Sprintf("%s/heatmap/%s/?%s", strings.TrimRight(cfg.BaseURL, "/"), url.PathEscape(market), q.Encode())
}

// DecodeRecords turns the JSON array returned by the extraction script into
// RawRecords. Cells without a symbol are dropped. A missing or non-numeric
// area becomes models.DefaultArea; every other missing field stays empty for
// the normalizer to fill.
func DecodeRecords(data []byte) ([]models.RawRecord, error) {
	if len(data) == 0 {
		return []models.RawRecord{}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("extraction result is not valid JSON")
	}

	result := gjson.ParseBytes(data)
	if result.Type == gjson.Null {
		return []models.RawRecord{}, nil
	}
	if !result.IsArray() {
		return nil, fmt.Errorf("extraction result is %s, want array", result.Type)
	}

	cells := result.Array()
	records := make([]models.RawRecord, 0, len(cells))
	for _, cell := range cells {
		if !cell.IsObject() {
			continue
		}
		symbol := strings.TrimSpace(cell.Get("symbol").String())
		if symbol == "" {
			continue
		}

		area := models.DefaultArea
		if a := cell.Get("area"); a.Type == gjson.Number {
			area = a.Float()
		}

		records = append(records, models.RawRecord{
			Symbol: symbol,
			Name:   cell.Get("name").String(),
			Change: cell.Get("change").String(),
			Price:  cell.Get("price").String(),
			Color:  cell.Get("color").String(),
			Area:   area,
		})
	}
	return records, nil
}
