package solr

import (
	"fmt"
	"time"
)

const timeLayout = "2006-01-02T15:04:05.999999Z"

// FormatTime converts t to the subset of ISO 8601 that the server
// expects: UTC, trailing Z, optional fractional seconds.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime parses a timestamp string as produced by the server.
func ParseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("solr: %q is not a valid ISO 8601 date: %w", value, err)
	}
	return t.UTC(), nil
}

// ParseTimeValue is a pathmap transform parsing timestamp-shaped leaf
// values into time.Time. Nulls pass through unchanged.
func ParseTimeValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("solr: expected timestamp string, got %T", value)
	}
	return ParseTime(s)
}
