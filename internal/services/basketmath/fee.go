package basketmath

import "github.com/holiman/uint256"

// SplitFee skims fee = floor(amount*feeBps/10000) and returns (amount-fee, fee).
func SplitFee(amount uint64, feeBps uint16) (net uint64, fee uint64, err error) {
	f, err := MulDivFloor(uint256.NewInt(amount), uint256.NewInt(uint64(feeBps)), u256BpsDenom)
	if err != nil {
		return 0, 0, err
	}
	if fee, err = ToUint64(f); err != nil {
		return 0, 0, err
	}
	if net, err = CheckedSub64(amount, fee); err != nil {
		return 0, 0, err
	}
	return net, fee, nil
}
