// Package snapshot provides the in-memory store for the working data set:
// the raw measurement records plus the presets, machines, and field labels
// they are interpreted against.
//
// The store is the single mutable seam of the service. Everything downstream
// of it is a pure function, so reads copy out: a pipeline run sees a stable
// view no matter what the writers do afterwards.
package snapshot

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/prodlens-io/prodlens/internal/measurement"
)

var (
	// ErrNilRecord is returned when a nil raw record is appended.
	ErrNilRecord = errors.New("record cannot be nil")
)

// Snapshot is the full working data set: what a capture sync uploads and
// what a pipeline run reads.
type Snapshot struct {
	Records  []measurement.RawRecord      `json:"records"`
	Presets  []measurement.StandardPreset `json:"presets"`
	Machines []measurement.Machine        `json:"machines"`
	Labels   map[string]string            `json:"labels"`
}

// Store is the thread-safe in-memory snapshot store.
type Store struct {
	// mutex protects all snapshot fields below.
	mutex sync.RWMutex

	records  []measurement.RawRecord
	presets  []measurement.StandardPreset
	machines []measurement.Machine
	labels   map[string]string
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{
		labels: make(map[string]string),
	}
}

// Replace swaps the entire working snapshot for the given one.
//
// Presets and machines without an ID are assigned a generated UUID, matching
// how the capture settings surface creates them. Every preset and machine is
// validated; on the first validation failure nothing is replaced.
func (s *Store) Replace(snap Snapshot) error {
	presets := make([]measurement.StandardPreset, len(snap.Presets))

	for i, preset := range snap.Presets {
		if preset.ID == "" {
			preset.ID = uuid.NewString()
		}

		if err := preset.Validate(); err != nil {
			return fmt.Errorf("preset %d: %w", i, err)
		}

		presets[i] = preset
	}

	machines := make([]measurement.Machine, len(snap.Machines))

	for i, machine := range snap.Machines {
		if machine.ID == "" {
			machine.ID = uuid.NewString()
		}

		if err := machine.Validate(); err != nil {
			return fmt.Errorf("machine %d: %w", i, err)
		}

		machines[i] = machine
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records = copyRecords(snap.Records)
	s.presets = presets
	s.machines = machines
	s.labels = copyLabels(snap.Labels)

	return nil
}

// AppendRecords adds raw records to the current snapshot without touching
// presets, machines, or labels. Records are stored as-is; normalization
// happens on read, so a dirty row is kept rather than rejected.
func (s *Store) AppendRecords(records ...measurement.RawRecord) error {
	for _, record := range records {
		if record == nil {
			return ErrNilRecord
		}
	}

	appended := copyRecords(records)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records = append(s.records, appended...)

	return nil
}

// View returns a copy of the full working snapshot.
func (s *Store) View() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return Snapshot{
		Records:  copyRecords(s.records),
		Presets:  append([]measurement.StandardPreset(nil), s.presets...),
		Machines: append([]measurement.Machine(nil), s.machines...),
		Labels:   copyLabels(s.labels),
	}
}

// Records returns a copy of the raw record set.
func (s *Store) Records() []measurement.RawRecord {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return copyRecords(s.records)
}

// Presets returns a copy of the standard presets.
func (s *Store) Presets() []measurement.StandardPreset {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return append([]measurement.StandardPreset(nil), s.presets...)
}

// Machines returns a copy of the machine registry.
func (s *Store) Machines() []measurement.Machine {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return append([]measurement.Machine(nil), s.machines...)
}

// Labels returns a copy of the configured field labels.
func (s *Store) Labels() map[string]string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return copyLabels(s.labels)
}

// RecordCount returns the number of raw records currently held.
func (s *Store) RecordCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.records)
}

// copyRecords copies the record slice and each record map one level deep;
// record values are scalars, so that is a full copy.
func copyRecords(records []measurement.RawRecord) []measurement.RawRecord {
	if records == nil {
		return nil
	}

	result := make([]measurement.RawRecord, len(records))

	for i, record := range records {
		clone := make(measurement.RawRecord, len(record))
		for key, value := range record {
			clone[key] = value
		}

		result[i] = clone
	}

	return result
}

func copyLabels(labels map[string]string) map[string]string {
	result := make(map[string]string, len(labels))
	for key, value := range labels {
		result[key] = value
	}

	return result
}
