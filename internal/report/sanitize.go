package report

import (
	"strconv"
	"strings"
)

// sanitize trims a raw value and drops the dash placeholder reports use
// for empty fields.
func sanitize(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || trimmed == "-" {
		return nil
	}
	return &trimmed
}

// valueAt sanitizes the value at the given index, tolerating missing
// values.
func valueAt(values []string, index int) *string {
	if index >= len(values) {
		return nil
	}
	return sanitize(values[index])
}

// optionalDebug renders an optional value for error messages.
func optionalDebug(s *string) string {
	if s == nil {
		return "none"
	}
	return strconv.Quote(*s)
}
