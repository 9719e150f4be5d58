package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp_DayFirstWithTime(t *testing.T) {
	parsed := ParseTimestamp("05/03/24 14:30:05")

	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2024, time.March, 5, 14, 30, 5, 0, time.Local), *parsed)
}

func TestParseTimestamp_DayFirstVariants(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{
			name:     "date only",
			input:    "5/3/24",
			expected: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local),
		},
		{
			name:     "four digit year",
			input:    "05/03/2024",
			expected: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local),
		},
		{
			name:     "hour and minute only",
			input:    "05/03/24 14:30",
			expected: time.Date(2024, time.March, 5, 14, 30, 0, 0, time.Local),
		},
		{
			name:     "single digit everything",
			input:    "1/1/24 7:05",
			expected: time.Date(2024, time.January, 1, 7, 5, 0, 0, time.Local),
		},
		{
			name:     "extra whitespace before time",
			input:    "05/03/24   14:30:05",
			expected: time.Date(2024, time.March, 5, 14, 30, 5, 0, time.Local),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed := ParseTimestamp(tc.input)

			require.NotNil(t, parsed)
			assert.Equal(t, tc.expected, *parsed)
		})
	}
}

func TestParseTimestamp_FallbackLayouts(t *testing.T) {
	parsed := ParseTimestamp("2024-03-05 14:30:05")

	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2024, time.March, 5, 14, 30, 5, 0, time.Local), *parsed)

	parsed = ParseTimestamp("2024-03-05")

	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local), *parsed)
}

func TestParseTimestamp_UnparsableYieldsNil(t *testing.T) {
	inputs := []any{"not a date", "??", "", nil, 12345, []string{"05/03/24"}}

	for _, input := range inputs {
		assert.Nil(t, ParseTimestamp(input), "input %v should be unparsable", input)
	}
}

func TestParseTimestamp_NativeTime(t *testing.T) {
	now := time.Now()

	parsed := ParseTimestamp(now)

	require.NotNil(t, parsed)
	assert.True(t, parsed.Equal(now))

	assert.Nil(t, ParseTimestamp(time.Time{}), "zero time counts as missing")
}

func TestParseTimestamp_MalformedTimeComponentsDefaultToZero(t *testing.T) {
	parsed := ParseTimestamp("05/03/24 xx:yy")

	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local), *parsed)
}
