// Package tolerance resolves the acceptable deviation band for a measured
// field and classifies actual-vs-standard deviations into severity bands.
package tolerance

import (
	"github.com/prodlens-io/prodlens/internal/measurement"
)

type (
	// Category assigns one tolerance value to a named class of fields.
	//
	// Categories replace the original inline field-name heuristics with a
	// data-driven table so the policy can be extended from configuration
	// without code changes.
	Category struct {
		Name      string   `yaml:"name"`
		Tolerance float64  `yaml:"tolerance"`
		Fields    []string `yaml:"fields"`
	}

	// Resolver resolves the tolerance band for a field from a preset override
	// or the built-in category defaults.
	// Thread-safe for concurrent use (immutable after construction).
	Resolver struct {
		byField  map[string]float64
		fallback float64
	}
)

// fallbackTolerance applies to fields that belong to no category.
const fallbackTolerance = 2

// DefaultCategories returns the built-in field-category table.
//
// Speed runs at a wider band than the weight fields because line speed
// legitimately oscillates; the dryers share the speed band since their
// controllers hold temperature only within a few degrees.
func DefaultCategories() []Category {
	return []Category{
		{
			Name:      "speed",
			Tolerance: 5,
			Fields:    []string{"speed"},
		},
		{
			Name:      "weight",
			Tolerance: 2,
			Fields:    []string{"unwind2", "rewind", "unwind1", "infeed", "oven"},
		},
		{
			Name:      "temperature",
			Tolerance: 5,
			Fields:    []string{"dryer1", "dryer2", "dryer3", "chillerTemp", "axisTemp"},
		},
	}
}

// NewResolver creates a resolver from the given categories.
// Later categories win when a field appears in more than one.
// Passing no categories yields a resolver using only the global fallback.
func NewResolver(categories ...Category) *Resolver {
	byField := make(map[string]float64)

	for _, cat := range categories {
		for _, field := range cat.Fields {
			byField[field] = cat.Tolerance
		}
	}

	return &Resolver{
		byField:  byField,
		fallback: fallbackTolerance,
	}
}

// NewDefaultResolver creates a resolver with the built-in category table.
func NewDefaultResolver() *Resolver {
	return NewResolver(DefaultCategories()...)
}

// Resolve returns the tolerance band for a field.
//
// Precedence: preset override (when present), then the field's category
// default, then the global fallback. Total by construction: a canonical field
// key always resolves to some tolerance, never to "no tolerance".
func (r *Resolver) Resolve(preset *measurement.StandardPreset, field string) float64 {
	if tol, ok := preset.Tolerance(field); ok {
		return tol
	}

	return r.Default(field)
}

// Default returns the built-in tolerance for a field, ignoring any preset.
func (r *Resolver) Default(field string) float64 {
	if r == nil {
		return fallbackTolerance
	}

	if tol, ok := r.byField[field]; ok {
		return tol
	}

	return r.fallback
}
