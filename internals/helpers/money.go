package helper

import "github.com/shopspring/decimal"

// HasAtMostTwoDecimals reports whether d is representable in cents.
func HasAtMostTwoDecimals(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

// Round2 normalizes an amount coming back from SQL aggregates.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
