package fieldmap

import (
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/prodlens-io/prodlens/internal/measurement"
)

// Catalog is the set of known canonical field keys with display labels.
// Built once per snapshot from the built-in labels, caller-supplied labels,
// and the fields declared by machine zone schemas. Immutable after
// construction.
type Catalog struct {
	labels map[string]string
	keys   []string
}

// zoneSchema mirrors the JSON schema blob each zone carries; only the
// property names matter to the catalog.
type zoneSchema struct {
	Properties map[string]json.RawMessage `json:"properties"`
}

// defaultLabels is the built-in field-key → display-label table.
func defaultLabels() map[string]string {
	return map[string]string{
		"unwind1":     "Unwind 1 (Kg)",
		"unwind2":     "Unwind 2 (Kg)",
		"rewind":      "Rewind (Kg)",
		"infeed":      "Infeed (Kg)",
		"oven":        "Oven (Kg)",
		"speed":       "Speed (M/Min)",
		"dryer1":      "Buồng sấy 1 (°C)",
		"dryer2":      "Buồng sấy 2 (°C)",
		"dryer3":      "Buồng sấy 3 (°C)",
		"chillerTemp": "Máy lạnh (°C)",
		"axisTemp":    "Trục ghép (°C)",
	}
}

// BuildCatalog builds the field catalog for a set of machines.
//
// Keys come from three sources, merged: the built-in label table, the
// caller-supplied labels, and every "properties" key declared by a machine
// zone schema. A zone whose schema fails to parse contributes no fields and
// logs a warning; catalog construction never aborts.
//
// An empty result degrades to the single "speed" field so downstream field
// pickers always have something to select.
func BuildCatalog(machines []measurement.Machine, labels map[string]string) *Catalog {
	merged := defaultLabels()

	for key, label := range labels {
		merged[key] = label
	}

	keySet := make(map[string]struct{}, len(merged))
	for key := range merged {
		keySet[key] = struct{}{}
	}

	for _, machine := range machines {
		for _, zone := range machine.Zones {
			for _, key := range schemaFields(machine.ID, zone) {
				keySet[key] = struct{}{}
			}
		}
	}

	if len(keySet) == 0 {
		keySet["speed"] = struct{}{}
	}

	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return &Catalog{
		labels: merged,
		keys:   keys,
	}
}

// schemaFields extracts the field keys a zone schema declares.
// Malformed JSON isolates to this zone: it contributes nothing.
func schemaFields(machineID string, zone measurement.Zone) []string {
	if zone.Schema == "" {
		return nil
	}

	var schema zoneSchema
	if err := json.Unmarshal([]byte(zone.Schema), &schema); err != nil {
		slog.Warn("Skipping zone with malformed schema",
			slog.String("machine_id", machineID),
			slog.String("zone_id", zone.ID),
			slog.String("error", err.Error()))

		return nil
	}

	fields := make([]string, 0, len(schema.Properties))
	for key := range schema.Properties {
		fields = append(fields, key)
	}

	return fields
}

// Keys returns the catalog's canonical field keys in sorted order.
// The returned slice is a copy.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.keys))
	copy(keys, c.keys)

	return keys
}

// Has reports whether the catalog knows the canonical field key.
func (c *Catalog) Has(key string) bool {
	_, ok := c.labels[key]
	if ok {
		return true
	}

	for _, k := range c.keys {
		if k == key {
			return true
		}
	}

	return false
}

// Label returns the display label for a field, falling back to the key
// itself when no label is known.
func (c *Catalog) Label(key string) string {
	if label, ok := c.labels[key]; ok {
		return label
	}

	return key
}

// Labels returns a copy of the field-key → label table.
func (c *Catalog) Labels() map[string]string {
	labels := make(map[string]string, len(c.labels))
	for key, label := range c.labels {
		labels[key] = label
	}

	return labels
}

// MachineFields returns the sorted field keys declared by one machine's zone
// schemas. Empty when the machine declares none; the caller decides whether
// to fall back to Keys().
func MachineFields(machine measurement.Machine) []string {
	keySet := make(map[string]struct{})

	for _, zone := range machine.Zones {
		for _, key := range schemaFields(machine.ID, zone) {
			keySet[key] = struct{}{}
		}
	}

	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
