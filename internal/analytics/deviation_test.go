package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodlens-io/prodlens/internal/measurement"
	"github.com/prodlens-io/prodlens/internal/normalize"
	"github.com/prodlens-io/prodlens/internal/tolerance"
)

func newTestEvaluator() *Evaluator {
	return NewEvaluator(tolerance.NewDefaultResolver())
}

func TestEvaluate_ClassifiesEveryPresentField(t *testing.T) {
	evaluator := newTestEvaluator()

	record := normalize.Record{
		ProductName: "BOPP-20",
		Fields: map[string]normalize.Field{
			"speed":   {Actual: 102, Standard: 100}, // speed tol 5, diff 2 -> ok
			"unwind2": {Actual: 103, Standard: 100}, // weight tol 2, diff 3 -> alert
		},
	}

	assessment := evaluator.Evaluate(record, nil)

	require.Len(t, assessment.Fields, 2)
	assert.Equal(t, tolerance.SeverityOK, assessment.Fields["speed"].Severity)
	assert.Equal(t, tolerance.SeverityAlert, assessment.Fields["unwind2"].Severity)
	assert.True(t, assessment.HasAlert)
}

func TestEvaluate_NoAlertWhenAllFieldsInBand(t *testing.T) {
	evaluator := newTestEvaluator()

	record := normalize.Record{
		Fields: map[string]normalize.Field{
			"speed":  {Actual: 101, Standard: 100},
			"dryer1": {Actual: 182, Standard: 180},
		},
	}

	assessment := evaluator.Evaluate(record, nil)

	assert.False(t, assessment.HasAlert)
	for key, deviation := range assessment.Fields {
		assert.Equal(t, tolerance.SeverityOK, deviation.Severity, "field %s", key)
	}
}

func TestEvaluate_PresetStandardFillsMissingRecordStandard(t *testing.T) {
	evaluator := newTestEvaluator()

	preset := &measurement.StandardPreset{
		ProductName: "BOPP-20",
		Standards:   map[string]float64{"speed": 100},
	}

	record := normalize.Record{
		ProductName: "BOPP-20",
		Fields: map[string]normalize.Field{
			"speed": {Actual: 110}, // no embedded standard
		},
	}

	assessment := evaluator.Evaluate(record, preset)

	deviation := assessment.Fields["speed"]
	assert.InDelta(t, 100.0, deviation.Standard, 0.001)
	assert.InDelta(t, 10.0, deviation.Diff, 0.001)
	assert.Equal(t, tolerance.SeverityAlert, deviation.Severity)
}

func TestEvaluate_RecordStandardWinsOverPreset(t *testing.T) {
	evaluator := newTestEvaluator()

	preset := &measurement.StandardPreset{
		ProductName: "BOPP-20",
		Standards:   map[string]float64{"speed": 200},
	}

	record := normalize.Record{
		Fields: map[string]normalize.Field{
			"speed": {Actual: 101, Standard: 100},
		},
	}

	deviation := evaluator.Evaluate(record, preset).Fields["speed"]

	assert.InDelta(t, 100.0, deviation.Standard, 0.001)
	assert.Equal(t, tolerance.SeverityOK, deviation.Severity)
}

func TestEvaluate_PresetToleranceOverride(t *testing.T) {
	evaluator := newTestEvaluator()

	preset := &measurement.StandardPreset{
		ProductName: "BOPP-20",
		Tolerances:  map[string]float64{"speed": 1},
	}

	record := normalize.Record{
		Fields: map[string]normalize.Field{
			"speed": {Actual: 102, Standard: 100},
		},
	}

	// diff 2 breaks the overridden band of 1 even though the category
	// default of 5 would classify it ok.
	assert.True(t, evaluator.Evaluate(record, preset).HasAlert)
}

func TestEvaluate_FieldWithoutAnyStandard(t *testing.T) {
	evaluator := newTestEvaluator()

	record := normalize.Record{
		Fields: map[string]normalize.Field{
			"speed": {Actual: 40},
		},
	}

	deviation := evaluator.Evaluate(record, nil).Fields["speed"]

	assert.Zero(t, deviation.Standard)
	assert.InDelta(t, 40.0, deviation.Diff, 0.001)
	assert.Zero(t, deviation.PercentDiff, "zero standard yields zero percent, never Inf")
	assert.Equal(t, tolerance.SeverityAlert, deviation.Severity)
}

func TestEvaluate_EmptyRecord(t *testing.T) {
	evaluator := newTestEvaluator()

	assessment := evaluator.Evaluate(normalize.Record{}, nil)

	assert.Empty(t, assessment.Fields)
	assert.False(t, assessment.HasAlert)
}

func TestEvaluateAll_PairsRecordsWithTheirPresets(t *testing.T) {
	evaluator := newTestEvaluator()

	presets := []measurement.StandardPreset{
		{ProductName: "BOPP-20", Standards: map[string]float64{"speed": 100}},
		{ProductName: "CPP-25", Standards: map[string]float64{"speed": 50}},
	}

	records := []normalize.Record{
		{ProductName: "BOPP-20", Fields: map[string]normalize.Field{"speed": {Actual: 101}}},
		{ProductName: "CPP-25", Fields: map[string]normalize.Field{"speed": {Actual: 70}}},
	}

	assessments := evaluator.EvaluateAll(records, presets)

	require.Len(t, assessments, 2)
	assert.False(t, assessments[0].HasAlert)
	assert.True(t, assessments[1].HasAlert)
}

func TestFindPreset(t *testing.T) {
	presets := []measurement.StandardPreset{
		{ID: "p1", ProductName: "BOPP-20"},
		{ID: "p2", ProductName: "BOPP-20"},
		{ID: "p3", ProductName: "CPP-25"},
	}

	t.Run("first match wins", func(t *testing.T) {
		found := FindPreset(presets, "BOPP-20")
		require.NotNil(t, found)
		assert.Equal(t, "p1", found.ID)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Nil(t, FindPreset(presets, "NYLON-15"))
	})

	t.Run("empty product name", func(t *testing.T) {
		assert.Nil(t, FindPreset(presets, ""))
	})

	t.Run("empty preset list", func(t *testing.T) {
		assert.Nil(t, FindPreset(nil, "BOPP-20"))
	})
}
