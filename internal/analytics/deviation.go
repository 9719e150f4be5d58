package analytics

import (
	"github.com/prodlens-io/prodlens/internal/measurement"
	"github.com/prodlens-io/prodlens/internal/normalize"
	"github.com/prodlens-io/prodlens/internal/tolerance"
)

type (
	// Assessment is the full deviation picture of one record: a deviation
	// result per present field and the overall alert flag.
	// Ephemeral: computed on demand, never persisted.
	Assessment struct {
		// Fields maps canonical field key to its deviation result.
		Fields map[string]tolerance.Deviation `json:"fields"`

		// HasAlert is true when any present field classifies as an alert.
		HasAlert bool `json:"hasAlert"`
	}

	// Evaluator assesses records against their product's standard preset and
	// the tolerance policy.
	// Thread-safe for concurrent use (immutable after construction).
	Evaluator struct {
		tolerances *tolerance.Resolver
	}
)

// NewEvaluator creates an Evaluator over the given tolerance resolver.
func NewEvaluator(tolerances *tolerance.Resolver) *Evaluator {
	return &Evaluator{tolerances: tolerances}
}

// Evaluate assesses every present field of a record. preset may be nil; the
// tolerance resolver then falls back to the built-in defaults, and standards
// come from the record alone.
//
// The standard for a field is the record's embedded standard when it carries
// one, else the preset's. A field with neither still classifies — against a
// standard of zero — so dirty rows degrade to visible deviations instead of
// disappearing.
func (e *Evaluator) Evaluate(record normalize.Record, preset *measurement.StandardPreset) Assessment {
	assessment := Assessment{
		Fields: make(map[string]tolerance.Deviation, len(record.Fields)),
	}

	for key, field := range record.Fields {
		standard := field.Standard
		if standard == 0 {
			if s, ok := preset.Standard(key); ok {
				standard = s
			}
		}

		deviation := tolerance.Evaluate(field.Actual, standard, e.tolerances.Resolve(preset, key))

		assessment.Fields[key] = deviation
		if deviation.IsAlert() {
			assessment.HasAlert = true
		}
	}

	return assessment
}

// EvaluateAll assesses a record set, pairing each record with the preset for
// its product name. Index i of the result corresponds to records[i].
func (e *Evaluator) EvaluateAll(records []normalize.Record, presets []measurement.StandardPreset) []Assessment {
	assessments := make([]Assessment, 0, len(records))

	for _, record := range records {
		assessments = append(assessments, e.Evaluate(record, FindPreset(presets, record.ProductName)))
	}

	return assessments
}

// FindPreset returns the first preset for a product name, nil when none
// matches. First match wins, mirroring the upstream settings surface where
// (product, structure, machine) uniqueness is expected but not enforced.
func FindPreset(presets []measurement.StandardPreset, productName string) *measurement.StandardPreset {
	if productName == "" {
		return nil
	}

	for i := range presets {
		if presets[i].ProductName == productName {
			return &presets[i]
		}
	}

	return nil
}
