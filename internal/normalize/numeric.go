// Package normalize turns raw measurement records of uncertain shape into
// typed, canonical records: locale-formatted numerics become floats, day-first
// timestamps become time.Time, and aliased keys become canonical fields.
//
// Every function in this package is total. Dirty input degrades to a safe
// default (0 for numbers, nil for timestamps); nothing here returns an error
// or panics, because a single bad sheet cell must never take down a pipeline
// run.
package normalize

import (
	"strconv"
	"strings"
)

// Coerce turns an arbitrary raw value into a finite float64.
//
// Rules:
//   - absent (nil) or empty string → 0
//   - numeric types → the value unchanged
//   - strings → trimmed, the first comma becomes a decimal point (Vietnamese
//     locale convention), every character outside [-0-9.] is stripped, then
//     parsed; an unparsable remainder → 0
//
// Examples:
//
//	Coerce("12,5 kg") → 12.5
//	Coerce("")        → 0
//	Coerce(nil)       → 0
//	Coerce(250)       → 250
func Coerce(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		return coerceString(v)
	default:
		return 0
	}
}

func coerceString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	// First comma reads as the decimal separator; later ones are noise and
	// get stripped with the rest of the non-numeric characters.
	s = strings.Replace(s, ",", ".", 1)

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '-' || r == '.' {
			b.WriteRune(r)
		}
	}

	parsed, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}

	return parsed
}
