package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dayFirstPattern matches the capture app's D/M/Y timestamp format with an
// optional trailing time: "5/3/24", "05/03/2024 14:30", "05/03/24 14:30:05".
var dayFirstPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4})(.*)$`)

// twoDigitYearBase maps a 2-digit year onto the 2000s; the plant has no
// records before then.
const twoDigitYearBase = 2000

// fallbackLayouts are tried, in order, for strings that do not match the
// day-first shape. These cover ISO exports and date-picker values.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ParseTimestamp parses a raw timestamp value into a time.Time.
//
// Accepts a native time.Time (returned as-is), nil, or a string. Strings are
// first matched against the day-first D/M/Y[ H:M[:S]] shape: a 2-digit year
// is read as 2000+year, missing time components default to 0. Strings of any
// other shape fall back to the generic layouts.
//
// Anything still unparsable yields nil. That is a normal, expected outcome —
// the record stays eligible for every non-date filter — not a failure to
// surface.
func ParseTimestamp(value any) *time.Time {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		if v.IsZero() {
			return nil
		}

		return &v
	case *time.Time:
		return v
	case string:
		return parseTimestampString(v)
	default:
		return nil
	}
}

func parseTimestampString(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if match := dayFirstPattern.FindStringSubmatch(s); match != nil {
		return parseDayFirst(match)
	}

	for _, layout := range fallbackLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &parsed
		}
	}

	return nil
}

// parseDayFirst builds a time from the positional day-first match.
// match layout: [full, day, month, year, remainder].
func parseDayFirst(match []string) *time.Time {
	day, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	year, _ := strconv.Atoi(match[3])

	if year < 100 {
		year += twoDigitYearBase
	}

	hour, minute, second := 0, 0, 0

	if remainder := strings.TrimSpace(match[4]); remainder != "" {
		parts := strings.Split(remainder, ":")

		hour = atoiOrZero(parts[0])
		if len(parts) > 1 {
			minute = atoiOrZero(parts[1])
		}

		if len(parts) > 2 {
			second = atoiOrZero(parts[2])
		}
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)

	return &t
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}

	return n
}
