package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount constants. Amounts carry exactly two fraction digits.
const (
	AmountPlaces      = 2
	MaxTransferAmount = "1000000000" // 1 billion
)

var maxTransferAmount = decimal.RequireFromString(MaxTransferAmount)

// RoundAmount rounds d half away from zero to cents.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}

// NormalizeAmount rounds a requested amount to cents and checks it is positive
// and within the per-transaction ceiling.
func NormalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	rounded := RoundAmount(amount)
	if !rounded.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	if rounded.GreaterThan(maxTransferAmount) {
		return decimal.Zero, fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, MaxTransferAmount)
	}

	return rounded, nil
}

// NormalizeLimits rounds limits to cents and enforces absoluteLimit <= 0 and dailyLimit >= 0.
func NormalizeLimits(absoluteLimit, dailyLimit decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	absoluteLimit = RoundAmount(absoluteLimit)
	dailyLimit = RoundAmount(dailyLimit)

	if absoluteLimit.IsPositive() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: absolute limit must be zero or negative", ErrInvalidLimit)
	}

	if dailyLimit.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: daily limit must be zero or positive", ErrInvalidLimit)
	}

	return absoluteLimit, dailyLimit, nil
}
