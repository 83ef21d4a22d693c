package shared

import (
	"fmt"
	"strings"
	"time"
)

// ParseUTCTimestamp parses an ISO8601 timestamp from the backend into a UTC
// wall-clock time. Job start/end times are always absolute wall-clock values,
// never client-relative offsets, so that multiple tabs and reloads agree on
// when a job finishes.
//
// Handles both the "Z" suffix and the "+00:00" suffix.
func ParseUTCTimestamp(timestamp string) (time.Time, error) {
	if timestamp == "" {
		return time.Time{}, fmt.Errorf("timestamp cannot be empty")
	}

	normalized := strings.Replace(timestamp, "Z", "+00:00", 1)
	t, err := time.Parse(time.RFC3339, normalized)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp format %q: %w", timestamp, err)
	}

	return t.UTC(), nil
}

// FormatUTCTimestamp renders a time as the ISO8601 form the backend expects
func FormatUTCTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
