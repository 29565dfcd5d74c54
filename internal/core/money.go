package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scales used across the engine. Unit prices, totals and withheld amounts are
// kept at three decimals; quantities, discounts and percentage rates at two.
const (
	AmountScale int32 = 3
	RateScale   int32 = 2
)

var hundred = decimal.NewFromInt(100)

// RoundAmount rounds a monetary value half-up to AmountScale.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// RoundRate rounds a percentage or quantity half-up to RateScale.
func RoundRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(RateScale)
}

// Percent returns amount × (rate / 100) rounded to AmountScale.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return RoundAmount(amount.Mul(rate.Div(hundred)))
}

// FormatAmount renders d with exactly AmountScale decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountScale)
}

// FormatRate renders d with exactly RateScale decimals.
func FormatRate(d decimal.Decimal) string {
	return d.StringFixed(RateScale)
}

// ParseDecimal parses a user-supplied decimal string for the named field.
// Blank input parses as zero. Values carrying more decimals than maxScale are
// rejected rather than rounded.
func ParseDecimal(field, raw string, maxScale int32) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: field, Value: raw, Reason: "not a decimal number"}
	}
	if d.Exponent() < -maxScale && !d.Equal(d.Round(maxScale)) {
		return decimal.Zero, &ValidationError{
			Field:  field,
			Value:  raw,
			Reason: fmt.Sprintf("at most %d decimal places allowed", maxScale),
		}
	}
	return d, nil
}

// inPercentRange reports whether d lies in the closed interval [0, 100].
func inPercentRange(d decimal.Decimal) bool {
	return !d.IsNegative() && !d.GreaterThan(hundred)
}
