package math

import (
	"math"
	"strconv"
)

// FormatFloat32 renders f as the shortest decimal text that parses back to
// the same float32. Every text format in this module goes through it.
func FormatFloat32(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// ParseFloat32 is the inverse of FormatFloat32.
func ParseFloat32(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(f), nil
}

// RoundInt16 rounds f half away from zero and saturates to the int16 range.
// NaN maps to 0.
func RoundInt16(f float32) int16 {
	r := math.Round(float64(f))
	switch {
	case math.IsNaN(r):
		return 0
	case r >= math.MaxInt16:
		return math.MaxInt16
	case r <= math.MinInt16:
		return math.MinInt16
	}
	return int16(r)
}
