package fields

import (
	"strconv"
	"strings"
)

var unitMultiplier = map[string]float64{
	"k": 1e3, "K": 1e3,
	"m": 1e6, "M": 1e6,
	"g": 1e9, "G": 1e9,
	"b": 1, "B": 1,
}

// splitUnit separates a trailing unit suffix (k/K/m/M/g/G/b/B) from a
// numeric token, returning the multiplier to apply (1 if none present).
func splitUnit(s string) (numPart string, mult float64) {
	mult = 1
	if s == "" {
		return s, mult
	}
	last := s[len(s)-1:]
	if m, ok := unitMultiplier[last]; ok {
		return strings.TrimSpace(s[:len(s)-1]), m
	}
	return s, mult
}

// ParseDigit parses a signed integer with an optional unit suffix.
func ParseDigit(s string) (int64, bool) {
	num, mult := splitUnit(strings.TrimSpace(s))
	i, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, false
	}
	return int64(float64(i) * mult), true
}

// ParseFloat parses a signed float with an optional unit suffix.
func ParseFloat(s string) (float64, bool) {
	num, mult := splitUnit(strings.TrimSpace(s))
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return f * mult, true
}
