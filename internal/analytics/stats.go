package analytics

import (
	"math"
	"time"

	"github.com/prodlens-io/prodlens/internal/measurement"
	"github.com/prodlens-io/prodlens/internal/normalize"
)

// Stats holds the fleet-level rolling counters and the overall yield.
//
// Day, Week, and Month are independent rolling windows, not mutually
// exclusive buckets: a record logged this morning counts in all three.
type Stats struct {
	// Day counts records on the current calendar day.
	Day int `json:"day"`

	// Week counts records within the trailing 7×24 hours.
	Week int `json:"week"`

	// Month counts records in the current calendar month.
	Month int `json:"month"`

	// Total is the size of the evaluated record set.
	Total int `json:"total"`

	// AlertCount is the number of records with at least one field in alert.
	AlertCount int `json:"alertCount"`

	// YieldPercent is 100×(1 − AlertCount/Total), one decimal, 0 for an
	// empty set — never NaN.
	YieldPercent float64 `json:"yieldPercent"`
}

const (
	trailingWeek = 7 * 24 * time.Hour
	percentScale = 100
)

// Stats computes the rolling counters and yield for a record set.
//
// now anchors the calendar windows; records without a parsable timestamp are
// excluded from the time counters but still count toward Total and the
// yield. Total by construction: an empty set returns all zeros.
func (e *Evaluator) Stats(
	records []normalize.Record,
	presets []measurement.StandardPreset,
	now time.Time,
) Stats {
	stats := Stats{Total: len(records)}

	today := dayStart(now)

	for _, record := range records {
		if e.Evaluate(record, FindPreset(presets, record.ProductName)).HasAlert {
			stats.AlertCount++
		}

		if record.Timestamp == nil {
			continue
		}

		t := *record.Timestamp

		if !t.Before(today) {
			stats.Day++
		}

		if now.Sub(t) < trailingWeek {
			stats.Week++
		}

		if t.Month() == now.Month() && t.Year() == now.Year() {
			stats.Month++
		}
	}

	if stats.Total > 0 {
		failed := float64(stats.AlertCount) / float64(stats.Total)
		stats.YieldPercent = math.Round((1-failed)*percentScale*10) / 10
	}

	return stats
}
