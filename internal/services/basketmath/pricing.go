package basketmath

import "github.com/holiman/uint256"

// SharesForDeposit prices one leg of a deposit. With no shares outstanding
// the normalized value is minted 1:1, otherwise the leg gets
// floor(normalizedNet * totalSupply / totalVaultValue) against the
// pre-transfer snapshot.
func SharesForDeposit(normalizedNet *uint256.Int, totalSupply uint64, totalVaultValue *uint256.Int) (uint64, error) {
	if totalSupply == 0 {
		return ToUint64(normalizedNet)
	}
	shares, err := MulDivFloor(normalizedNet, uint256.NewInt(totalSupply), totalVaultValue)
	if err != nil {
		return 0, err
	}
	return ToUint64(shares)
}

// ProportionalPayout returns floor(vaultBalance * sharesToBurn / totalSupply).
func ProportionalPayout(vaultBalance, sharesToBurn, totalSupply uint64) (uint64, error) {
	out, err := MulDivFloor(uint256.NewInt(vaultBalance), uint256.NewInt(sharesToBurn), uint256.NewInt(totalSupply))
	if err != nil {
		return 0, err
	}
	return ToUint64(out)
}

// IsZero reports whether v is nil or zero.
func IsZero(v *uint256.Int) bool {
	return v == nil || v.Cmp(u256Zero) == 0
}
