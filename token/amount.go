package token

import (
	"fmt"

	"github.com/holiman/uint256"
)

const (
	// TokenDecimals is the fixed-point precision of all amounts.
	TokenDecimals uint8 = 18

	// TreasuryFeePercent and BurnFeePercent are the per-transfer fee rates.
	// Fixed for this ledger; changing them is a future extension point.
	TreasuryFeePercent uint64 = 1
	BurnFeePercent     uint64 = 1
)

// maxSupply is 1,000,000 whole tokens at 18 decimals.
var maxSupply = uint256.MustFromDecimal("1000000000000000000000000")

var hundred = uint256.NewInt(100)

// MaxSupply returns a copy of the immutable supply cap.
func MaxSupply() *uint256.Int {
	return new(uint256.Int).Set(maxSupply)
}

// feePortion computes floor(amount * percent / 100). Rounds down, so amounts
// below 100 base units yield a zero fee.
func feePortion(amount *uint256.Int, percent uint64) *uint256.Int {
	p := new(uint256.Int).Mul(amount, uint256.NewInt(percent))
	return p.Div(p, hundred)
}

// feeSplit divides a gross transfer amount into treasury fee, burn fee and
// the net amount delivered to the recipient.
func feeSplit(amount *uint256.Int) (treasuryFee, burnFee, net *uint256.Int) {
	treasuryFee = feePortion(amount, TreasuryFeePercent)
	burnFee = feePortion(amount, BurnFeePercent)
	net = new(uint256.Int).Sub(amount, treasuryFee)
	net.Sub(net, burnFee)
	return treasuryFee, burnFee, net
}

// checkedAdd returns a+b or ErrAmountOverflow. Supply-bounded values can
// never wrap, so an overflow here means a hostile input amount.
func checkedAdd(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, fmt.Errorf("%w: %s + %s", ErrAmountOverflow, a.Dec(), b.Dec())
	}
	return sum, nil
}

// validateAmount rejects nil and zero amounts.
func validateAmount(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("%w: amount must be > 0", ErrInvalidAmount)
	}
	return nil
}
