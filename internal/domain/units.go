package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FormatUnits renders base units as a UI amount, e.g. 1500000 @ 6 -> "1.5".
func FormatUnits(amount uint64, decimals uint8) string {
	return decimal.NewFromUint64(amount).Shift(-int32(decimals)).String()
}

// ParseUnits converts a UI amount to base units. Amounts with more fractional
// digits than decimals are rejected rather than rounded.
func ParseUnits(s string, decimals uint8) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid amount %q: negative", s)
	}
	base := d.Shift(int32(decimals))
	if !base.Equal(base.Truncate(0)) {
		return 0, fmt.Errorf("invalid amount %q: more than %d decimals", s, decimals)
	}
	bi := base.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("invalid amount %q: out of range", s)
	}
	return bi.Uint64(), nil
}
