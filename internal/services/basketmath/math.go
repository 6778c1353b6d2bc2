// Package basketmath holds the pure arithmetic of the basket engines: fee
// splitting, decimal normalization and pro-rata pricing. Every intermediate is
// bounded to 128 bits and every step that does not fit fails with
// domain.ErrArithmeticOverflow instead of saturating.
package basketmath

import (
	"github.com/holiman/uint256"

	"github.com/hxuan190/basket-engine/internal/domain"
)

const (
	// ShareDecimals is the precision of every basket share mint.
	ShareDecimals uint8 = 6
	// BpsDenominator is 100% in basis points.
	BpsDenominator uint64 = 10_000
)

var (
	u256Zero     = uint256.NewInt(0)
	u256Ten      = uint256.NewInt(10)
	u256BpsDenom = uint256.NewInt(BpsDenominator)
)

func fits128(v *uint256.Int) bool {
	return v.BitLen() <= 128
}

// CheckedMul128 returns a*b, failing if the product needs more than 128 bits.
func CheckedMul128(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow || !fits128(z) {
		return nil, domain.ErrArithmeticOverflow
	}
	return z, nil
}

// CheckedAdd128 returns a+b, failing if the sum needs more than 128 bits.
func CheckedAdd128(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow || !fits128(z) {
		return nil, domain.ErrArithmeticOverflow
	}
	return z, nil
}

// CheckedDiv returns floor(a/b). Division by zero is reported as overflow.
func CheckedDiv(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() {
		return nil, domain.ErrArithmeticOverflow
	}
	return new(uint256.Int).Div(a, b), nil
}

// CheckedPow10 returns 10^exp within 128 bits.
func CheckedPow10(exp uint8) (*uint256.Int, error) {
	z := uint256.NewInt(1)
	for i := uint8(0); i < exp; i++ {
		next, err := CheckedMul128(z, u256Ten)
		if err != nil {
			return nil, err
		}
		z = next
	}
	return z, nil
}

// MulDivFloor returns floor(a*b/c) with a 128-bit intermediate.
func MulDivFloor(a, b, c *uint256.Int) (*uint256.Int, error) {
	prod, err := CheckedMul128(a, b)
	if err != nil {
		return nil, err
	}
	return CheckedDiv(prod, c)
}

// ToUint64 narrows v, failing when it does not fit.
func ToUint64(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, domain.ErrArithmeticOverflow
	}
	return v.Uint64(), nil
}

// CheckedAdd64 returns a+b or an overflow error.
func CheckedAdd64(a, b uint64) (uint64, error) {
	s := a + b
	if s < a {
		return 0, domain.ErrArithmeticOverflow
	}
	return s, nil
}

// CheckedSub64 returns a-b or an overflow error when b > a.
func CheckedSub64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, domain.ErrArithmeticOverflow
	}
	return a - b, nil
}
