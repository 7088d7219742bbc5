// Package threshold parses human-readable SLA threshold strings such as
// "15 minutes" or "99.5%" into numeric comparables.
package threshold

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatError reports a threshold string that could not be parsed.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid threshold %q: %s", e.Input, e.Reason)
}

// ParsePercentage parses a percentage threshold like "99.5%" into a float.
func ParsePercentage(s string) (float64, error) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, &FormatError{Input: s, Reason: "not a number"}
	}
	return v, nil
}

var unitSeconds = map[string]int64{
	"second": 1,
	"minute": 60,
	"hour":   3600,
	"day":    86400,
}

// ParseDuration parses a duration threshold like "15 minutes" or "1 hour"
// into seconds. The format is exactly "<integer> <unit>"; the unit is
// matched case-insensitively with a trailing plural "s" stripped.
func ParseDuration(s string) (int64, error) {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(parts) != 2 {
		return 0, &FormatError{Input: s, Reason: "expected \"<value> <unit>\""}
	}

	value, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, &FormatError{Input: s, Reason: "value is not an integer"}
	}

	unit := strings.TrimSuffix(parts[1], "s")
	mult, ok := unitSeconds[unit]
	if !ok {
		return 0, &FormatError{Input: s, Reason: fmt.Sprintf("unknown time unit %q", unit)}
	}

	return value * mult, nil
}
