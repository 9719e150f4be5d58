package normalize

import (
	"fmt"
	"time"

	"github.com/prodlens-io/prodlens/internal/fieldmap"
	"github.com/prodlens-io/prodlens/internal/measurement"
)

type (
	// Record is a measurement event after normalization: canonical field
	// values, a parsed timestamp, and resolved record identity.
	//
	// Records are derived, never persisted. A fresh set is built on every
	// pipeline run and discarded after the consuming stage reads it; treat a
	// Record as immutable once produced.
	Record struct {
		// Timestamp is the parsed event time, nil when the raw value was
		// missing or unparsable. A nil timestamp keeps the record eligible
		// for every non-date filter.
		Timestamp *time.Time `json:"timestamp"`

		ProductName string `json:"productName"`
		Structure   string `json:"structure"`
		MachineID   string `json:"machineId"`
		MachineName string `json:"machineName"`

		// Fields maps canonical field key to its normalized values. Only
		// present fields appear (see Field.Present for the presence rule).
		Fields map[string]Field `json:"fields"`
	}

	// Field carries the normalized readings of one canonical field.
	Field struct {
		// Actual is the measured value, coerced to a float.
		Actual float64 `json:"actual"`

		// Standard is the expected value recorded alongside the measurement,
		// 0 when the record carries none.
		Standard float64 `json:"standard"`

		// Diff is the recorded actual−standard delta when the source wrote
		// one, otherwise computed from Actual and Standard.
		Diff float64 `json:"diff"`
	}

	// Normalizer builds normalized records from raw ones using the field
	// alias tables and the catalog of known keys.
	// Thread-safe for concurrent use (immutable after construction).
	Normalizer struct {
		resolver *fieldmap.Resolver
		catalog  *fieldmap.Catalog
	}
)

// NewNormalizer creates a Normalizer over the given alias resolver and
// field catalog.
func NewNormalizer(resolver *fieldmap.Resolver, catalog *fieldmap.Catalog) *Normalizer {
	return &Normalizer{
		resolver: resolver,
		catalog:  catalog,
	}
}

// Normalize converts one raw record. Total: malformed values degrade to safe
// defaults, absent fields are simply omitted.
func (n *Normalizer) Normalize(raw measurement.RawRecord) Record {
	record := Record{
		ProductName: n.recordString(raw, fieldmap.KeyProductName),
		Structure:   n.recordString(raw, fieldmap.KeyStructure),
		MachineID:   n.recordString(raw, fieldmap.KeyMachineID),
		MachineName: n.recordString(raw, fieldmap.KeyMachineName),
		Fields:      make(map[string]Field),
	}

	if value, ok := n.resolver.RecordValue(raw, fieldmap.KeyTimestamp); ok {
		record.Timestamp = ParseTimestamp(value)
	}

	for _, key := range n.catalog.Keys() {
		rawActual, hasActual := n.resolver.FieldValue(raw, key, fieldmap.VariantActual)
		actual := Coerce(rawActual)

		// A field counts as present when the record carries any alias for it,
		// or when its value is non-zero. Zero-valued cells that were never
		// written stay invisible.
		if !hasActual && actual == 0 && !n.resolver.HasField(raw, key) {
			continue
		}

		rawStandard, _ := n.resolver.FieldValue(raw, key, fieldmap.VariantStandard)
		standard := Coerce(rawStandard)

		diff := actual - standard
		if rawDiff, ok := n.resolver.FieldValue(raw, key, fieldmap.VariantDiff); ok {
			diff = Coerce(rawDiff)
		}

		record.Fields[key] = Field{
			Actual:   actual,
			Standard: standard,
			Diff:     diff,
		}
	}

	return record
}

// NormalizeAll converts a snapshot of raw records, preserving input order.
func (n *Normalizer) NormalizeAll(raws []measurement.RawRecord) []Record {
	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, n.Normalize(raw))
	}

	return records
}

// recordString resolves a record-level key and renders it as a string.
func (n *Normalizer) recordString(raw measurement.RawRecord, canonical string) string {
	value, ok := n.resolver.RecordValue(raw, canonical)
	if !ok {
		return ""
	}

	if s, isString := value.(string); isString {
		return s
	}

	return fmt.Sprintf("%v", value)
}
