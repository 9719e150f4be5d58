package analytics

import (
	"fmt"
	"math"

	"github.com/prodlens-io/prodlens/internal/normalize"
)

// WindowSize bounds a chart series to the most recent entries; anything older
// is out of frame.
const WindowSize = 20

// Placeholder labels rendered when a point's timestamp failed to parse.
const (
	missingTimeLabel = "--/--"
	missingDateLabel = "--/--/--"
)

type (
	// ChartPoint is one windowed, chronologically ordered record projection,
	// ready for plotting.
	ChartPoint struct {
		// Time is the x-axis label, "D/M H:MM" (e.g. "5/3 14:30").
		Time string `json:"time"`

		// DateShort is the padded date for tooltips, "DD/MM/YY".
		DateShort string `json:"dateShort"`

		ProductName string `json:"productName"`
		Structure   string `json:"structure"`

		// Value is the measured value of the charted field.
		Value float64 `json:"value"`

		// Standard is the expected value; 0 when the record carries none.
		Standard float64 `json:"standard"`

		// UpperBound and LowerBound are standard±tolerance, present only when
		// the standard is positive (bounds around a zero standard would just
		// draw noise).
		UpperBound *float64 `json:"upperBound"`
		LowerBound *float64 `json:"lowerBound"`

		// Diff is value−standard rounded to one decimal.
		Diff float64 `json:"diff"`

		// DiffPercent is the percent deviation, one decimal, 0 when the
		// standard is not positive.
		DiffPercent float64 `json:"diffPercent"`

		// DiffLabel is the signed display form of Diff, e.g. "+2.0".
		DiffLabel string `json:"diffLabel"`
	}

	// AxisDomain is the padded [min, max] display range for the y axis.
	AxisDomain struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	}
)

// Axis domain constants: the fallback range for an empty series, and the
// padding floor that keeps near-flat series from hugging the chart edges.
const (
	defaultAxisMin = 0
	defaultAxisMax = 100

	paddingRatio = 0.5
	paddingFloor = 5
)

// Window selects the chart window from a filtered (descending) record list:
// at most the first WindowSize records, reversed to ascending chronological
// order for left-to-right plotting, with tolerance bounds attached per point.
func Window(filtered []normalize.Record, field string, tol float64) []ChartPoint {
	count := len(filtered)
	if count > WindowSize {
		count = WindowSize
	}

	points := make([]ChartPoint, 0, count)

	// Walk the window back to front: the oldest record of the window becomes
	// the first point.
	for i := count - 1; i >= 0; i-- {
		points = append(points, newChartPoint(filtered[i], field, tol))
	}

	return points
}

func newChartPoint(record normalize.Record, field string, tol float64) ChartPoint {
	point := ChartPoint{
		Time:        missingTimeLabel,
		DateShort:   missingDateLabel,
		ProductName: fallback(record.ProductName, "N/A"),
		Structure:   fallback(record.Structure, "N/A"),
	}

	if record.Timestamp != nil {
		t := *record.Timestamp
		point.Time = fmt.Sprintf("%d/%d %d:%02d", t.Day(), int(t.Month()), t.Hour(), t.Minute())
		point.DateShort = fmt.Sprintf("%02d/%02d/%02d", t.Day(), int(t.Month()), t.Year()%100)
	}

	f := record.Fields[field]
	point.Value = f.Actual
	point.Standard = f.Standard

	if f.Standard > 0 {
		upper := f.Standard + tol
		lower := f.Standard - tol
		point.UpperBound = &upper
		point.LowerBound = &lower
	}

	diff := round1(f.Actual - f.Standard)
	point.Diff = diff
	point.DiffLabel = fmt.Sprintf("%.1f", diff)

	if diff > 0 {
		point.DiffLabel = "+" + point.DiffLabel
	}

	if f.Standard > 0 {
		point.DiffPercent = round1((f.Actual - f.Standard) / f.Standard * 100)
	}

	return point
}

// Domain derives the padded y-axis display range from a windowed series.
//
// Every present value among {value, standard, upperBound, lowerBound} feeds
// the raw extent; padding is max(0.5×(max−min), 5). The lower edge floors at
// zero — the measured quantities are non-negative physical quantities.
// An empty series yields the fixed default range.
func Domain(points []ChartPoint) AxisDomain {
	if len(points) == 0 {
		return AxisDomain{Min: defaultAxisMin, Max: defaultAxisMax}
	}

	rawMin := math.Inf(1)
	rawMax := math.Inf(-1)

	observe := func(v float64) {
		rawMin = math.Min(rawMin, v)
		rawMax = math.Max(rawMax, v)
	}

	for _, point := range points {
		observe(point.Value)
		observe(point.Standard)

		if point.UpperBound != nil {
			observe(*point.UpperBound)
		}

		if point.LowerBound != nil {
			observe(*point.LowerBound)
		}
	}

	padding := math.Max(paddingRatio*(rawMax-rawMin), paddingFloor)

	return AxisDomain{
		Min: math.Max(0, math.Floor(rawMin-padding)),
		Max: math.Ceil(rawMax + padding),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}

	return s
}
