package deposit

import (
	"math"
	"strconv"
	"strings"
)

// DefaultPercent is the deposit share of the total price when no policy
// override is configured.
const DefaultPercent = 30

// Split computes the deposit and the remaining balance for a total price in
// integer currency units.  The deposit is rounded half-up to the nearest
// unit and the remainder is derived by subtraction, so the two always sum
// to total.
func Split(total int64, percent int) (deposit, remaining int64, err error) {
	if total < 0 {
		return 0, 0, Validation("total price must not be negative", nil)
	}
	if percent < 0 || percent > 100 {
		return 0, 0, Validation("deposit percent must be within [0,100]", nil)
	}
	deposit = (total*int64(percent) + 50) / 100
	return deposit, total - deposit, nil
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampPercent parses a user-supplied numeric input and clamps it to
// [lo, hi].  Non-numeric input is coerced to lo; fractional input is
// rounded to the nearest integer.
func ClampPercent(raw string, lo, hi int) int {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		return ClampInt(n, lo, hi)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return lo
	}
	if f <= float64(lo) {
		return lo
	}
	if f >= float64(hi) {
		return hi
	}
	return ClampInt(int(math.Round(f)), lo, hi)
}
