package version

import "time"

// TimestampLayout is the layout of resource bundle versions,
// e.g. "2025-01-07 08:30:00.000".
const TimestampLayout = "2006-01-02 15:04:05.000"

// ParseTimestamp parses a resource version. A value that does not match
// TimestampLayout yields the zero time, which orders before every valid value.
func ParseTimestamp(s string) time.Time {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CompareTimestamp compares two timestamp version strings.
// Malformed values compare equal to each other and less than any valid value.
func CompareTimestamp(a, b string) int {
	return ParseTimestamp(a).Compare(ParseTimestamp(b))
}
