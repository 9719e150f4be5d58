package tolerance

import "math"

type (
	// Severity is the classification of a field's deviation from its standard.
	// Ordered by increasing concern.
	Severity string

	// Deviation is the computed per-field deviation result.
	// Ephemeral: computed on demand, never persisted.
	Deviation struct {
		Actual      float64  `json:"actual"`
		Standard    float64  `json:"standard"`
		Diff        float64  `json:"diff"`
		PercentDiff float64  `json:"percentDiff"`
		Tolerance   float64  `json:"tolerance"`
		Severity    Severity `json:"severity"`
	}
)

const (
	// SeverityOK means the deviation sits within half the tolerance band.
	SeverityOK Severity = "ok"

	// SeverityWarning means the deviation exceeds half the band but stays
	// inside it.
	SeverityWarning Severity = "warning"

	// SeverityAlert means the deviation breaks the tolerance band.
	SeverityAlert Severity = "alert"
)

const percentFactor = 100

// Classify maps an absolute deviation against a tolerance band.
//
//	|diff| <= tolerance/2  → OK
//	|diff| <= tolerance    → Warning
//	|diff| >  tolerance    → Alert
//
// Both boundaries are inclusive on the lower-severity side, matching the
// band partition the log cards and KPI tiles rely on.
func Classify(diff, tolerance float64) Severity {
	abs := math.Abs(diff)

	switch {
	case abs <= tolerance/2:
		return SeverityOK
	case abs <= tolerance:
		return SeverityWarning
	default:
		return SeverityAlert
	}
}

// Evaluate computes the full deviation result for one field.
//
// diff = actual − standard. percentDiff = diff/standard×100 when the standard
// is positive, else 0. Total: never divides by zero, never returns NaN.
func Evaluate(actual, standard, tolerance float64) Deviation {
	diff := actual - standard

	percentDiff := 0.0
	if standard > 0 {
		percentDiff = diff / standard * percentFactor
	}

	return Deviation{
		Actual:      actual,
		Standard:    standard,
		Diff:        diff,
		PercentDiff: percentDiff,
		Tolerance:   tolerance,
		Severity:    Classify(diff, tolerance),
	}
}

// IsAlert reports whether the deviation classifies as an alert.
func (d Deviation) IsAlert() bool {
	return d.Severity == SeverityAlert
}

// String returns the string representation of the Severity.
func (s Severity) String() string {
	return string(s)
}
