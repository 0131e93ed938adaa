package models

import "github.com/shopspring/decimal"

const (
	// MaxAmountScale is the most fractional digits an amount may carry.
	MaxAmountScale = 18
	// MaxAmountIntegerDigits is the most digits left of the decimal point.
	MaxAmountIntegerDigits = 30
)

// ValidateAmount reports ErrInvalidAmount for a negative amount or one whose
// precision or magnitude exceeds the bounds above. Every amount that reaches
// the store passes through here.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	exp := int64(amount.Exponent())
	// Bounds the exponent itself, which also covers zeros such as 0e5000000.
	if exp < -MaxAmountScale || exp > MaxAmountIntegerDigits {
		return ErrInvalidAmount
	}
	if amount.IsZero() {
		return nil
	}
	// Integer digits are the coefficient digits shifted by the exponent.
	if int64(amount.NumDigits())+exp > MaxAmountIntegerDigits {
		return ErrInvalidAmount
	}
	return nil
}
