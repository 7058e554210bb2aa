// Package money provides decimal parsing and formatting helpers for
// monetary values. All amounts flow through shopspring decimals so that
// commission arithmetic stays exact; binary floating point never touches
// a monetary field.
package money

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNoAmount indicates that no well-formed decimal number was found in
// the submitted text.
var ErrNoAmount = errors.New("no amount found in input")

// amountPattern matches the first decimal number in free text. A comma
// is accepted as the decimal separator. The sign is kept so that a
// negative amount reaches validation and is rejected there instead of
// being silently read as positive.
var amountPattern = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

// ParseAmount extracts the first well-formed decimal number from
// arbitrary user text. "0,2" and "send 0.2 please" both parse to 0.2.
func ParseAmount(text string) (decimal.Decimal, error) {
	match := amountPattern.FindString(text)
	if match == "" {
		return decimal.Zero, ErrNoAmount
	}

	match = strings.ReplaceAll(match, ",", ".")
	amount, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero, ErrNoAmount
	}
	return amount, nil
}

// FormatUSDT renders a USDT value with four decimal places, the
// precision used for user-facing USDT equivalents.
func FormatUSDT(value decimal.Decimal) string {
	return value.StringFixed(4)
}
