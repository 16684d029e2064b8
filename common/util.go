package common

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ToBaseUnits converts a whole-token decimal amount string to the asset's
// integer base-unit representation (e.g. "1.5" ETH with 18 decimals becomes
// 1500000000000000000).
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative, got %s", amount)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	return shifted.BigInt(), nil
}

// FromBaseUnits converts an integer base-unit amount back to whole-token
// units.
func FromBaseUnits(v *big.Int, decimals int) decimal.Decimal {
	return decimal.NewFromBigInt(v, 0).Shift(int32(-decimals))
}
