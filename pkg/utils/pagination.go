package utils

import "strconv"

// ParseLimitOffset parses limit/offset query values. Missing or invalid limits use def and
// are capped at max; negative or invalid offsets become 0.
func ParseLimitOffset(limitStr, offsetStr string, def, max int) (limit, offset int) {
	limit = def
	if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
		limit = n
	}
	if limit > max {
		limit = max
	}
	if n, err := strconv.Atoi(offsetStr); err == nil && n > 0 {
		offset = n
	}
	return limit, offset
}
