// Package measurement provides the domain models for production measurement
// ingestion: raw measurement records, machines and their zones, and the
// standard presets that records are judged against.
package measurement

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// RawRecord is one measurement event exactly as received.
	//
	// Keys are not guaranteed canonical or consistent across sources: the same
	// quantity may arrive under a suffixed key ("speed_act"), a plain key
	// ("speed"), or a localized header ("Sản phẩm" for productName). Values may
	// be strings, numbers, or absent. Resolution of this mess is the job of the
	// fieldmap and normalize packages; RawRecord itself stays untyped.
	RawRecord map[string]any

	// Zone describes one capture zone of a machine.
	//
	// Schema is a JSON blob whose "properties" keys enumerate the canonical
	// field keys this zone produces. A malformed schema isolates to this zone:
	// it contributes no fields to the catalog, and catalog construction
	// continues.
	Zone struct {
		// ID uniquely identifies the zone within its machine.
		ID string `json:"id"`

		// Name is the zone's display name.
		Name string `json:"name"`

		// Prompt is the extraction prompt used by the external vision step.
		// Carried for round-tripping only; the pipeline never interprets it.
		Prompt string `json:"prompt,omitempty"`

		// Schema is a JSON object string, e.g.
		// {"properties": {"speed": {"type": "number"}}}.
		Schema string `json:"schema,omitempty"`
	}

	// Machine is a production machine definition with its capture zones.
	Machine struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Zones []Zone `json:"zones,omitempty"`
	}

	// StandardPreset holds the expected values and tolerance overrides for one
	// product+structure+machine combination.
	//
	// Identity is the ID. Uniqueness of (ProductName, Structure, MachineID) is
	// expected from the upstream settings surface but not enforced here.
	StandardPreset struct {
		ID          string `json:"id"`
		ProductName string `json:"productName"`
		Structure   string `json:"structure,omitempty"`
		MachineID   string `json:"machineId,omitempty"`

		// Standards maps canonical field key to the expected value.
		Standards map[string]float64 `json:"standards,omitempty"`

		// Tolerances maps canonical field key to an allowed deviation override.
		// Fields without an override fall back to the built-in category default
		// (see the tolerance package).
		Tolerances map[string]float64 `json:"tolerances,omitempty"`
	}
)

// Domain validation errors (static sentinel errors for errors.Is() checks).
var (
	// ErrMachineIDEmpty indicates a machine definition without an id.
	ErrMachineIDEmpty = errors.New("machine id cannot be empty")

	// ErrMachineNameEmpty indicates a machine definition without a name.
	ErrMachineNameEmpty = errors.New("machine name cannot be empty")

	// ErrProductNameEmpty indicates a preset without a product name.
	ErrProductNameEmpty = errors.New("preset product name cannot be empty")

	// ErrToleranceNegative indicates a preset tolerance override below zero.
	ErrToleranceNegative = errors.New("preset tolerance cannot be negative")
)

// Validate performs domain validation on the Machine.
// Zone schemas are deliberately not validated here: a broken schema degrades
// that zone at catalog-build time instead of rejecting the whole machine.
func (m *Machine) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return ErrMachineIDEmpty
	}

	if strings.TrimSpace(m.Name) == "" {
		return ErrMachineNameEmpty
	}

	return nil
}

// Validate performs domain validation on the StandardPreset.
func (p *StandardPreset) Validate() error {
	if strings.TrimSpace(p.ProductName) == "" {
		return ErrProductNameEmpty
	}

	for field, tol := range p.Tolerances {
		if tol < 0 {
			return fmt.Errorf("%w: field %q has tolerance %v", ErrToleranceNegative, field, tol)
		}
	}

	return nil
}

// Tolerance returns the preset's tolerance override for a field.
// The second return value reports whether an override exists.
func (p *StandardPreset) Tolerance(field string) (float64, bool) {
	if p == nil || p.Tolerances == nil {
		return 0, false
	}

	tol, ok := p.Tolerances[field]

	return tol, ok
}

// Standard returns the preset's expected value for a field.
// The second return value reports whether a standard is defined.
func (p *StandardPreset) Standard(field string) (float64, bool) {
	if p == nil || p.Standards == nil {
		return 0, false
	}

	std, ok := p.Standards[field]

	return std, ok
}
