package telemetry

import (
	"math"
	"strconv"
	"strings"
)

// Coercion policy, one function per target type. nvidia-smi reports
// "[N/A]", "[Not Supported]" and occasionally fractional values for integer
// metrics; none of those may fail a whole sample.

// parseNumber parses s as a finite float. Anything else (including NaN and
// Inf, which strconv accepts) is a failure.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// truncInt parses an integer-like field: float first, then truncate toward zero.
func truncInt(s string) (int, bool) {
	v, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, false
	}
	return int(math.Trunc(v)), true
}

// OptionalInt coerces an integer-like field whose absence is meaningful.
func OptionalInt(s string) *int {
	v, ok := truncInt(s)
	if !ok {
		return nil
	}
	return &v
}

// RequiredInt coerces an integer-like field that feeds arithmetic; failure
// becomes 0 and negative values are raised to 0.
func RequiredInt(s string) int {
	v, ok := truncInt(s)
	if !ok || v < 0 {
		return 0
	}
	return v
}

// Percent coerces a percentage field and clamps it into [0,100].
func Percent(s string) int {
	v, ok := truncInt(s)
	if !ok {
		return 0
	}
	return ClampPercent(v)
}

// ClampPercent clamps v into [0,100].
func ClampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// OptionalFloat coerces a floating field. Failure is nil, never 0.
func OptionalFloat(s string) *float64 {
	v, ok := parseNumber(s)
	if !ok {
		return nil
	}
	return &v
}
