// Package analytics turns normalized measurement records into decision-ready
// signals: filtered log sets, per-record deviation assessments, bounded
// chart-ready series with computed axis ranges, and rolling counters.
//
// Every stage is a pure function over its inputs. Nothing here performs I/O,
// holds state, or throws: re-running a stage with the same snapshot always
// yields the same result.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/prodlens-io/prodlens/internal/normalize"
)

// FilterAll is the "no filter" value for the exact-match criteria.
const FilterAll = "all"

// Filter holds the log filter criteria. Zero values (and FilterAll for the
// exact-match criteria) mean "match everything"; criteria compose
// conjunctively.
type Filter struct {
	// Search matches case-insensitively against product name and structure.
	Search string

	// Product filters on exact product name.
	Product string

	// MachineID filters on exact machine id.
	MachineID string

	// Start and End bound the record timestamp inclusively, compared at day
	// granularity. Records whose timestamp failed to parse skip the range
	// comparison but still pass the other criteria: the source system keeps
	// such rows visible so ingest defects stay discoverable.
	Start *time.Time
	End   *time.Time
}

// Apply filters the record set and returns it sorted descending by timestamp
// — the canonical "most recent first" ordering the windower and the log list
// rely on. Records without a parsable timestamp sort last. The sort is
// stable, so equal timestamps keep their input order. The input slice is not
// mutated.
func Apply(records []normalize.Record, filter Filter) []normalize.Record {
	result := make([]normalize.Record, 0, len(records))

	for _, record := range records {
		if matches(record, filter) {
			result = append(result, record)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return sortKey(result[i]) > sortKey(result[j])
	})

	return result
}

func matches(record normalize.Record, filter Filter) bool {
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		product := strings.ToLower(record.ProductName)
		structure := strings.ToLower(record.Structure)

		if !strings.Contains(product, search) && !strings.Contains(structure, search) {
			return false
		}
	}

	if filter.Product != "" && filter.Product != FilterAll && record.ProductName != filter.Product {
		return false
	}

	if filter.MachineID != "" && filter.MachineID != FilterAll && record.MachineID != filter.MachineID {
		return false
	}

	return matchesDateRange(record, filter)
}

func matchesDateRange(record normalize.Record, filter Filter) bool {
	if record.Timestamp == nil {
		// No timestamp to compare - the record stays in.
		return true
	}

	day := dayStart(*record.Timestamp)

	if filter.Start != nil && day.Before(dayStart(*filter.Start)) {
		return false
	}

	if filter.End != nil && day.After(dayStart(*filter.End)) {
		return false
	}

	return true
}

// dayStart truncates a timestamp to its local calendar day.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// sortKey maps a record to its ordering key; missing timestamps read as the
// epoch so they sink to the bottom of the descending order.
func sortKey(record normalize.Record) int64 {
	if record.Timestamp == nil {
		return 0
	}

	return record.Timestamp.UnixNano()
}
