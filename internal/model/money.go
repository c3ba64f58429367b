package model

import (
	"math"
	"strconv"
)

// ParseCents converts decimal string amounts (major units) to cents (int64).
// WooCommerce REST v3 reports order totals and refund amounts as decimal
// strings (e.g. "99.00"); comparing them as cents avoids float equality.
// Handles edge cases: empty strings, missing decimals, large values.
// Examples: "99.00" → 9900, "1234.56" → 123456, "" → 0
func ParseCents(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	// math.Round handles both positive and negative numbers correctly
	return int64(math.Round(f * 100))
}
