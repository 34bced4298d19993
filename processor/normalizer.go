package processor

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"heatmapflow/logger"
	"heatmapflow/models"
)

// Normalizer turns raw heatmap cells into report-ready records: defaults
// filled in, change parsed and colored, tiles ordered largest first.
type Normalizer struct {
	log *logger.Log

	// Degraded-field debug lines are sampled so a broken page does not
	// flood the log with one line per tile.
	degradedLogs *rate.Sometimes

	recordsNormalized int64
	fieldsDefaulted   int64
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		log:          logger.GetLogger(),
		degradedLogs: &rate.Sometimes{First: 5, Every: 50},
	}
}

// Normalize applies defaults to every record, derives its change value and
// color encoding, and returns the records stably sorted by area descending.
// Input order is preserved for equal areas. The input slice is not modified.
func (n *Normalizer) Normalize(raws []models.RawRecord) []models.NormalizedRecord {
	start := time.Now()
	log := n.log.WithComponent("normalizer")

	records := make([]models.NormalizedRecord, 0, len(raws))
	for i, raw := range raws {
		records = append(records, n.normalizeOne(log, i, raw))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Area > records[j].Area
	})

	atomic.AddInt64(&n.recordsNormalized, int64(len(records)))
	logger.LogDataFlowEntry(log, "extractor", "normalizer", len(records), "heatmap_records")
	logger.LogPerformanceEntry(log, "normalizer", "normalize", time.Since(start), logger.Fields{
		"records": len(records),
	})
	return records
}

func (n *Normalizer) normalizeOne(log *logger.Entry, index int, raw models.RawRecord) models.NormalizedRecord {
	rec := models.NormalizedRecord{RawRecord: raw}
	var degraded []string

	if rec.Symbol == "" {
		rec.Symbol = models.DefaultSymbol
		degraded = append(degraded, "symbol")
	}
	if rec.Name == "" {
		// The symbol (already defaulted) stands in for a missing name.
		rec.Name = rec.Symbol
	}
	if rec.Change == "" {
		rec.Change = models.DefaultChange
		degraded = append(degraded, "change")
	}
	if rec.Price == "" {
		rec.Price = models.DefaultPrice
		degraded = append(degraded, "price")
	} else if !looksNumeric(rec.Price) {
		degraded = append(degraded, "price")
	}
	if math.IsNaN(rec.Area) || math.IsInf(rec.Area, 0) || rec.Area < 0 {
		rec.Area = models.DefaultArea
		degraded = append(degraded, "area")
	}

	value, ok := parseChange(rec.Change)
	if !ok && raw.Change != "" {
		degraded = append(degraded, "change")
	}
	if math.IsNaN(value) {
		value = 0
	}
	rec.ChangeValue = value

	enc := ColorFor(value)
	rec.TileColor = enc.TileColor
	rec.AccentColor = enc.AccentColor
	rec.ChangeClass = enc.Class

	if len(degraded) > 0 {
		atomic.AddInt64(&n.fieldsDefaulted, int64(len(degraded)))
		n.degradedLogs.Do(func() {
			log.WithFields(logger.Fields{
				"index":  index,
				"symbol": rec.Symbol,
				"fields": strings.Join(degraded, ","),
			}).Debug("record has missing or unparseable fields")
		})
	}
	return rec
}

// Stats reports lifetime counters for this normalizer.
func (n *Normalizer) Stats() (recordsNormalized, fieldsDefaulted int64) {
	return atomic.LoadInt64(&n.recordsNormalized), atomic.LoadInt64(&n.fieldsDefaulted)
}

// looksNumeric reports whether a display price such as "$1,234.50" parses as a number.
func looksNumeric(price string) bool {
	cleaned := strings.NewReplacer(",", "", "$", "", " ", "").Replace(price)
	_, err := strconv.ParseFloat(cleaned, 64)
	return err == nil
}
