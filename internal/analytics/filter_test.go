package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodlens-io/prodlens/internal/normalize"
)

func ts(t *testing.T, value string) *time.Time {
	t.Helper()

	parsed := normalize.ParseTimestamp(value)
	require.NotNil(t, parsed, "test timestamp %q must parse", value)

	return parsed
}

func testRecords(t *testing.T) []normalize.Record {
	t.Helper()

	return []normalize.Record{
		{ProductName: "BOPP-20", Structure: "PET/AL/PE", MachineID: "mx-01", Timestamp: ts(t, "01/03/24 08:00")},
		{ProductName: "BOPP-20", Structure: "PET/PE", MachineID: "mx-02", Timestamp: ts(t, "02/03/24 08:00")},
		{ProductName: "CPP-25", Structure: "PET/AL/PE", MachineID: "mx-01", Timestamp: ts(t, "03/03/24 08:00")},
		{ProductName: "CPP-25", Structure: "OPP/PE", MachineID: "mx-02", Timestamp: nil},
	}
}

func TestApply_NoCriteriaReturnsEverythingNewestFirst(t *testing.T) {
	records := testRecords(t)

	result := Apply(records, Filter{})

	require.Len(t, result, 4)
	assert.Equal(t, "CPP-25", result[0].ProductName)
	assert.Equal(t, *ts(t, "03/03/24 08:00"), *result[0].Timestamp)
	assert.Equal(t, *ts(t, "02/03/24 08:00"), *result[1].Timestamp)
	assert.Equal(t, *ts(t, "01/03/24 08:00"), *result[2].Timestamp)
	assert.Nil(t, result[3].Timestamp, "unparsable timestamps sort last")
}

func TestApply_AllSentinelMeansNoFilter(t *testing.T) {
	records := testRecords(t)

	result := Apply(records, Filter{Product: FilterAll, MachineID: FilterAll})

	assert.Len(t, result, 4)
}

func TestApply_SearchMatchesProductAndStructure(t *testing.T) {
	records := testRecords(t)

	byProduct := Apply(records, Filter{Search: "bopp"})
	assert.Len(t, byProduct, 2)

	byStructure := Apply(records, Filter{Search: "al/pe"})
	assert.Len(t, byStructure, 2)

	none := Apply(records, Filter{Search: "nylon"})
	assert.Empty(t, none)
}

func TestApply_ProductAndMachineCompose(t *testing.T) {
	records := testRecords(t)

	result := Apply(records, Filter{Product: "BOPP-20", MachineID: "mx-01"})

	require.Len(t, result, 1)
	assert.Equal(t, "BOPP-20", result[0].ProductName)
	assert.Equal(t, "mx-01", result[0].MachineID)
}

func TestApply_DateRangeIsInclusiveAtDayGranularity(t *testing.T) {
	records := testRecords(t)

	start := time.Date(2024, time.March, 2, 23, 59, 0, 0, time.Local)
	end := time.Date(2024, time.March, 3, 0, 1, 0, 0, time.Local)

	result := Apply(records, Filter{Start: &start, End: &end})

	// Day granularity: the 02/03 08:00 record is on the start day, the
	// 03/03 record on the end day; both are in despite the times of day.
	// The nil-timestamp record also stays (permissive range policy).
	require.Len(t, result, 3)
	assert.Equal(t, *ts(t, "03/03/24 08:00"), *result[0].Timestamp)
	assert.Equal(t, *ts(t, "02/03/24 08:00"), *result[1].Timestamp)
	assert.Nil(t, result[2].Timestamp)
}

func TestApply_DateRangeExcludesOutsideDays(t *testing.T) {
	records := testRecords(t)

	start := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.Local)

	result := Apply(records, Filter{Start: &start})

	for _, record := range result {
		if record.Timestamp != nil {
			assert.False(t, record.Timestamp.Before(start))
		}
	}

	assert.Len(t, result, 3, "one dated record before the range, plus the undated one kept")
}

func TestApply_UnparsableTimestampStillPassesOtherFilters(t *testing.T) {
	records := testRecords(t)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.Local)

	result := Apply(records, Filter{Product: "CPP-25", Start: &start, End: &end})

	require.Len(t, result, 2)
	assert.Nil(t, result[1].Timestamp)
}

func TestApply_StableForEqualTimestamps(t *testing.T) {
	same := ts(t, "01/03/24 08:00")
	records := []normalize.Record{
		{ProductName: "first", Timestamp: same},
		{ProductName: "second", Timestamp: same},
		{ProductName: "third", Timestamp: same},
	}

	result := Apply(records, Filter{})

	require.Len(t, result, 3)
	assert.Equal(t, "first", result[0].ProductName)
	assert.Equal(t, "second", result[1].ProductName)
	assert.Equal(t, "third", result[2].ProductName)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	records := testRecords(t)
	firstBefore := records[0].ProductName

	_ = Apply(records, Filter{})

	assert.Equal(t, firstBefore, records[0].ProductName)
	assert.Equal(t, "BOPP-20", records[0].ProductName)
}

func TestApply_EmptyInput(t *testing.T) {
	assert.Empty(t, Apply(nil, Filter{Search: "anything"}))
}
