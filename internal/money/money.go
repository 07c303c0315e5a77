// Package money holds the arithmetic shared by risk scoring and reporting.
package money

import (
	"strconv"

	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/shopspring/decimal"
)

var half = decimal.NewFromFloat(0.5)

// Round rounds v to the nearest whole unit, with halves going up (towards +Inf).
// 564.5 becomes 565 and -12.5 becomes -12.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Add(half).Floor().InexactFloat64()
}

// Monthly converts an amount charged once per cycle into a per-month figure.
func Monthly(amount float64, cycle model.BillingCycle) float64 {
	if cycle == model.CycleYearly {
		return decimal.NewFromFloat(amount).Div(decimal.NewFromInt(12)).InexactFloat64()
	}
	return amount
}

// Yearly converts an amount charged once per cycle into a per-year figure.
func Yearly(amount float64, cycle model.BillingCycle) float64 {
	if cycle == model.CycleYearly {
		return amount
	}
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(12)).InexactFloat64()
}

// PercentageChange returns the rounded percentage change from previous to current.
func PercentageChange(previous, current float64) int {
	if previous == 0 {
		return 0
	}
	change := decimal.NewFromFloat(current).Sub(decimal.NewFromFloat(previous)).
		Div(decimal.NewFromFloat(previous)).
		Mul(decimal.NewFromInt(100))
	return int(change.Add(half).Floor().IntPart())
}

// Format renders an amount without trailing zeros: 1800, 564.5.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
