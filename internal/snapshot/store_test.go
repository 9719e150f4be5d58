package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodlens-io/prodlens/internal/measurement"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Records: []measurement.RawRecord{
			{"Sản phẩm": "BOPP-20", "speed_act": "102"},
		},
		Presets: []measurement.StandardPreset{
			{ID: "p1", ProductName: "BOPP-20", Standards: map[string]float64{"speed": 100}},
		},
		Machines: []measurement.Machine{
			{ID: "mx-01", Name: "Extruder 1"},
		},
		Labels: map[string]string{"speed": "Line speed (m/min)"},
	}
}

func TestStore_StartsEmpty(t *testing.T) {
	store := NewStore()

	assert.Empty(t, store.Records())
	assert.Empty(t, store.Presets())
	assert.Empty(t, store.Machines())
	assert.Empty(t, store.Labels())
	assert.Zero(t, store.RecordCount())
}

func TestReplace_SwapsTheWholeSnapshot(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.Replace(testSnapshot()))

	assert.Equal(t, 1, store.RecordCount())
	assert.Len(t, store.Presets(), 1)
	assert.Len(t, store.Machines(), 1)
	assert.Equal(t, "Line speed (m/min)", store.Labels()["speed"])

	// A second replace discards the first data set entirely.
	require.NoError(t, store.Replace(Snapshot{}))

	assert.Zero(t, store.RecordCount())
	assert.Empty(t, store.Presets())
	assert.Empty(t, store.Machines())
	assert.Empty(t, store.Labels())
}

func TestReplace_GeneratesMissingIDs(t *testing.T) {
	store := NewStore()

	err := store.Replace(Snapshot{
		Presets:  []measurement.StandardPreset{{ProductName: "BOPP-20"}},
		Machines: []measurement.Machine{{Name: "Extruder 1"}},
	})
	require.NoError(t, err)

	presets := store.Presets()
	require.Len(t, presets, 1)
	assert.NotEmpty(t, presets[0].ID)

	machines := store.Machines()
	require.Len(t, machines, 1)
	assert.NotEmpty(t, machines[0].ID)
}

func TestReplace_KeepsProvidedIDs(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.Replace(testSnapshot()))

	assert.Equal(t, "p1", store.Presets()[0].ID)
	assert.Equal(t, "mx-01", store.Machines()[0].ID)
}

func TestReplace_RejectsInvalidPreset(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Replace(testSnapshot()))

	err := store.Replace(Snapshot{
		Presets: []measurement.StandardPreset{{ProductName: ""}},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, measurement.ErrProductNameEmpty)

	// The failed replace left the previous snapshot intact.
	assert.Equal(t, "p1", store.Presets()[0].ID)
}

func TestReplace_RejectsInvalidMachine(t *testing.T) {
	store := NewStore()

	err := store.Replace(Snapshot{
		Machines: []measurement.Machine{{ID: "mx-01", Name: ""}},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, measurement.ErrMachineNameEmpty)
}

func TestAppendRecords(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Replace(testSnapshot()))

	err := store.AppendRecords(
		measurement.RawRecord{"Sản phẩm": "CPP-25"},
		measurement.RawRecord{"Sản phẩm": "BOPP-20"},
	)
	require.NoError(t, err)

	assert.Equal(t, 3, store.RecordCount())
	assert.Len(t, store.Presets(), 1, "append leaves presets alone")
}

func TestAppendRecords_NilRecordRejected(t *testing.T) {
	store := NewStore()

	err := store.AppendRecords(measurement.RawRecord{"ok": 1}, nil)

	require.ErrorIs(t, err, ErrNilRecord)
	assert.Zero(t, store.RecordCount(), "nothing appended on rejection")
}

func TestView_IsACopy(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Replace(testSnapshot()))

	view := store.View()
	view.Records[0]["speed_act"] = "tampered"
	view.Labels["speed"] = "tampered"
	view.Presets[0].ID = "tampered"

	assert.Equal(t, "102", store.Records()[0]["speed_act"])
	assert.Equal(t, "Line speed (m/min)", store.Labels()["speed"])
	assert.Equal(t, "p1", store.Presets()[0].ID)
}

func TestReplace_DoesNotAliasCallerData(t *testing.T) {
	store := NewStore()

	snap := testSnapshot()
	require.NoError(t, store.Replace(snap))

	snap.Records[0]["speed_act"] = "tampered"
	snap.Labels["speed"] = "tampered"

	assert.Equal(t, "102", store.Records()[0]["speed_act"])
	assert.Equal(t, "Line speed (m/min)", store.Labels()["speed"])
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Replace(testSnapshot()))

	done := make(chan struct{})

	go func() {
		defer close(done)

		for i := 0; i < 100; i++ {
			_ = store.AppendRecords(measurement.RawRecord{"speed_act": i})
		}
	}()

	for i := 0; i < 100; i++ {
		_ = store.View()
		_ = store.RecordCount()
	}

	<-done

	assert.Equal(t, 101, store.RecordCount())
}
