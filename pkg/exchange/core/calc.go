package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Split derives the commission and the net payout from a USDT value.
// The arithmetic is exact: commission + net always equals the input
// value, with no rounding leak.
//
// A negative value or commission rate, or a rate of 1 or more, is a
// programming-contract violation, not a recoverable condition.
func Split(usdtValue, commissionRate decimal.Decimal) (commission, net decimal.Decimal, err error) {
	if usdtValue.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("negative value %s", usdtValue)
	}
	if commissionRate.IsNegative() || commissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("commission rate %s out of range [0,1)", commissionRate)
	}

	commission = usdtValue.Mul(commissionRate)
	net = usdtValue.Sub(commission)
	return commission, net, nil
}
