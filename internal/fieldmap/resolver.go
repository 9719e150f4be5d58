package fieldmap

import (
	"github.com/prodlens-io/prodlens/internal/measurement"
)

type (
	// Variant selects which reading of a field is being resolved.
	Variant string

	// Resolver resolves canonical keys against a raw record's aliased keys.
	// Thread-safe for concurrent use (immutable after construction).
	//
	// Resolution probes an ordered alias list per canonical key; the first key
	// present in the record with a non-empty value wins. A miss is reported as
	// absent (ok=false), never as an error: callers decide whether absence
	// means "skip" (display) or "zero" (arithmetic).
	Resolver struct {
		recordAliases map[string][]string
		fieldAliases  map[string][]string
	}
)

const (
	// VariantActual is the measured value of a field.
	VariantActual Variant = "act"

	// VariantStandard is the expected value recorded alongside a measurement.
	VariantStandard Variant = "std"

	// VariantDiff is the precomputed actual−standard delta recorded alongside
	// a measurement.
	VariantDiff Variant = "diff"
)

// Record-level canonical keys.
const (
	KeyProductName = "productName"
	KeyStructure   = "structure"
	KeyMachineID   = "machineId"
	KeyMachineName = "machineName"
	KeyTimestamp   = "timestamp"
)

// defaultRecordAliases is the built-in alias table for record-level keys.
// Order matters: the canonical spelling is probed first, then the sheet
// export headers, then the Vietnamese capture-app headers.
func defaultRecordAliases() map[string][]string {
	return map[string][]string{
		KeyProductName: {"productName", "Sản phẩm", "ProductName"},
		KeyStructure:   {"structure", "Cấu trúc", "Structure"},
		KeyMachineID:   {"machineId", "MachineID", "Máy", "machine_id"},
		KeyMachineName: {"machineName", "Tên máy", "MachineName"},
		KeyTimestamp:   {"timestamp", "Timestamp", "Thời gian"},
	}
}

// NewResolver creates a resolver from config.
//
// Configured aliases extend the built-in tables; they are probed after the
// built-ins so a config file can add sources but not shadow canonical keys.
// A nil config yields a resolver with only the built-in tables.
func NewResolver(cfg *Config) *Resolver {
	recordAliases := defaultRecordAliases()
	fieldAliases := make(map[string][]string)

	if cfg != nil {
		for key, extras := range cfg.RecordAliases {
			recordAliases[key] = append(recordAliases[key], extras...)
		}

		for key, extras := range cfg.FieldAliases {
			fieldAliases[key] = append(fieldAliases[key], extras...)
		}
	}

	return &Resolver{
		recordAliases: recordAliases,
		fieldAliases:  fieldAliases,
	}
}

// RecordValue resolves a record-level canonical key (productName, structure,
// machineId, machineName, timestamp) against the record's aliases.
// Returns (value, true) on the first present, non-empty match; (nil, false)
// when no alias matches.
func (r *Resolver) RecordValue(record measurement.RawRecord, canonical string) (any, bool) {
	aliases, ok := r.recordAliases[canonical]
	if !ok {
		// Unknown canonical key: probe the key itself so callers get
		// passthrough behavior instead of a silent miss.
		return probe(record, canonical)
	}

	return probeAll(record, aliases)
}

// FieldValue resolves a canonical field key's variant against the record.
//
// Actual:   <key>_act, <key>, then configured aliases.
// Standard: <key>_std, std_<key>, Std_<key>.
// Diff:     <key>_diff, diff_<key>, Diff_<key>.
//
// The suffixed form is the capture app's native spelling; the prefixed forms
// cover legacy sheet columns written by older exporters.
func (r *Resolver) FieldValue(record measurement.RawRecord, key string, variant Variant) (any, bool) {
	switch variant {
	case VariantStandard:
		return probeAll(record, []string{key + "_std", "std_" + key, "Std_" + key})
	case VariantDiff:
		return probeAll(record, []string{key + "_diff", "diff_" + key, "Diff_" + key})
	case VariantActual:
		fallthrough
	default:
		candidates := append([]string{key + "_act", key}, r.fieldAliases[key]...)

		return probeAll(record, candidates)
	}
}

// HasField reports whether the record carries any actual-variant alias for
// the canonical key, regardless of its value. The log list uses this to keep
// a field visible even when its measured value is zero.
func (r *Resolver) HasField(record measurement.RawRecord, key string) bool {
	candidates := append([]string{key + "_act", key}, r.fieldAliases[key]...)

	for _, candidate := range candidates {
		if _, ok := record[candidate]; ok {
			return true
		}
	}

	return false
}

// probeAll returns the first present, non-empty value among the aliases.
func probeAll(record measurement.RawRecord, aliases []string) (any, bool) {
	for _, alias := range aliases {
		if value, ok := probe(record, alias); ok {
			return value, true
		}
	}

	return nil, false
}

// probe treats nil and empty-string values as absent so a blank sheet cell
// falls through to the next alias.
func probe(record measurement.RawRecord, key string) (any, bool) {
	value, ok := record[key]
	if !ok || value == nil {
		return nil, false
	}

	if s, isString := value.(string); isString && s == "" {
		return nil, false
	}

	return value, true
}
