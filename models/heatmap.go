package models

import "time"

// Defaults applied when a scraped field is missing.
const (
	DefaultSymbol = "N/A"
	DefaultChange = "0%"
	DefaultPrice  = "N/A"
	DefaultArea   = 100.0
)

// ChangeClass tags a record by the sign of its change value.
type ChangeClass string

const (
	ChangePositive ChangeClass = "positive"
	ChangeNegative ChangeClass = "negative"
	ChangeNeutral  ChangeClass = "neutral"
)

// RawRecord is one heatmap cell as returned by the in-page extraction script.
// Area is the on-screen rectangle size and only orders tiles relative to each other.
type RawRecord struct {
	Symbol string  `json:"symbol" csv:"symbol"`
	Name   string  `json:"name" csv:"name"`
	Change string  `json:"change" csv:"change"`
	Price  string  `json:"price" csv:"price"`
	Color  string  `json:"color" csv:"color"`
	Area   float64 `json:"area" csv:"area"`
}

// NormalizedRecord is a RawRecord with defaults applied and its change encoding derived.
type NormalizedRecord struct {
	RawRecord
	ChangeValue float64     `json:"change_value" csv:"change_value"`
	TileColor   string      `json:"tile_color" csv:"tile_color"`
	AccentColor string      `json:"accent_color" csv:"accent_color"`
	ChangeClass ChangeClass `json:"change_class" csv:"change_class"`
}

// Summary holds the aggregate counts shown at the top of the report.
type Summary struct {
	Total    int `json:"total"`
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// Summarize counts records per change class.
func Summarize(records []NormalizedRecord) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch r.ChangeClass {
		case ChangePositive:
			s.Positive++
		case ChangeNegative:
			s.Negative++
		default:
			s.Neutral++
		}
	}
	return s
}

// SymbolDetails is the subset of scanner fields fetched for a single symbol.
type SymbolDetails struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Close     float64   `json:"close"`
	Change    float64   `json:"change"`
	ChangeAbs float64   `json:"change_abs"`
	Volume    float64   `json:"volume"`
	MarketCap float64   `json:"market_cap_basic"`
	FetchedAt time.Time `json:"fetched_at"`
}
