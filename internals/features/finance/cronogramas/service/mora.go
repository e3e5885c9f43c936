package service

import (
	"time"

	"github.com/shopspring/decimal"

	"colegio_backend/internals/helpers/dbtime"
)

// MoraPara is the late fee owed on asOf for an entry due on venc:
// whole days late times the daily rate. Zero on or before the due date.
func MoraPara(venc, asOf time.Time, moraDiaria decimal.Decimal) decimal.Decimal {
	days := dbtime.DaysBetween(venc, asOf)
	if days <= 0 || !moraDiaria.IsPositive() {
		return decimal.Zero
	}
	return moraDiaria.Mul(decimal.NewFromInt(int64(days))).Round(2)
}
