package utils

import "time"

// Note dates travel as RFC3339 strings and are normalized to UTC so
// store items and export front matter compare bytewise. Formatting
// keeps sub-second precision: the record handed back by a create must
// equal every subsequent read, and same-second notes still need a
// deterministic sort key.

// NowRFC3339 returns the current UTC time in RFC3339 format
func NowRFC3339() string {
	return FormatRFC3339(time.Now())
}

// FormatRFC3339 renders a time as a UTC RFC3339 string with
// nanosecond precision
func FormatRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseRFC3339 parses an RFC3339 time string, with or without a
// fractional second field
func ParseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
