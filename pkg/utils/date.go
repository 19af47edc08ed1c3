package utils

import (
	"strings"
	"time"
)

// ParseDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates (midnight UTC).
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
