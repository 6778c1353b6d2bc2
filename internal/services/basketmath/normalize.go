package basketmath

import "github.com/holiman/uint256"

// Normalize rescales amount from assetDecimals to shareDecimals. Scaling down
// truncates, so a depositor is never credited for a fractional remainder.
func Normalize(amount uint64, assetDecimals, shareDecimals uint8) (*uint256.Int, error) {
	v := uint256.NewInt(amount)
	if assetDecimals >= shareDecimals {
		divisor, err := CheckedPow10(assetDecimals - shareDecimals)
		if err != nil {
			return nil, err
		}
		return CheckedDiv(v, divisor)
	}
	multiplier, err := CheckedPow10(shareDecimals - assetDecimals)
	if err != nil {
		return nil, err
	}
	return CheckedMul128(v, multiplier)
}

// NormalizeToShares rescales to ShareDecimals.
func NormalizeToShares(amount uint64, assetDecimals uint8) (*uint256.Int, error) {
	return Normalize(amount, assetDecimals, ShareDecimals)
}
