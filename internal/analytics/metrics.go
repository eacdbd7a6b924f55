package analytics

import "github.com/shopspring/decimal"

// Derived retail metrics over already-summed measures. Every zero-denominator
// policy lives here as a named function instead of ad-hoc guards at call
// sites. Two policies intentionally differ: week-over-week returns nil when
// the prior window had no sales (no comparison exists), while cost rate
// reports 0.0 on a zero-sales day (a valid display value).

var half = decimal.New(5, -1)

// roundHalfUp rounds to the given number of decimal places with ties going
// toward positive infinity.
func roundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}

// RoundMoney rounds an exact decimal amount half-up to whole minor units.
func RoundMoney(d decimal.Decimal) int64 {
	return roundHalfUp(d, 0).IntPart()
}

func round1(d decimal.Decimal) float64 {
	f, _ := roundHalfUp(d, 1).Float64()
	return f
}

// UnitsPerTransaction returns units/tx, or 0.0 for a window without
// transactions.
func UnitsPerTransaction(units, tx int64) float64 {
	if tx == 0 {
		return 0
	}
	f, _ := decimal.NewFromInt(units).DivRound(decimal.NewFromInt(tx), 2).Float64()
	return f
}

// AvgSpendPerTransaction returns sales/tx rounded half-up to whole minor
// units, or 0 for a window without transactions.
func AvgSpendPerTransaction(sales, tx int64) int64 {
	if tx == 0 {
		return 0
	}
	return RoundMoney(decimal.NewFromInt(sales).Div(decimal.NewFromInt(tx)))
}

// AvgUnitRevenue returns sales/units rounded half-up to whole minor units, or
// 0 when no units were sold.
func AvgUnitRevenue(sales, units int64) int64 {
	if units == 0 {
		return 0
	}
	return RoundMoney(decimal.NewFromInt(sales).Div(decimal.NewFromInt(units)))
}

// WeekOverWeekPercent returns (recent-prior)/prior*100 rounded half-up to one
// decimal. When prior is zero there is nothing to compare against and the
// result is nil; callers must surface that as null, never as 0.
func WeekOverWeekPercent(recent, prior int64) *float64 {
	if prior == 0 {
		return nil
	}
	delta := decimal.NewFromInt(recent - prior)
	pct := round1(delta.Div(decimal.NewFromInt(prior)).Mul(decimal.NewFromInt(100)))
	return &pct
}

// CostRatePercent returns cost/sales*100 rounded half-up to one decimal.
// A zero-sales bucket reports 0.0 regardless of cost.
func CostRatePercent(cost, sales int64) float64 {
	if sales == 0 {
		return 0
	}
	return round1(decimal.NewFromInt(cost).Div(decimal.NewFromInt(sales)).Mul(decimal.NewFromInt(100)))
}

// ContributionPercent returns part/total*100 rounded half-up to one decimal,
// or 0.0 when the total is zero.
func ContributionPercent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return round1(decimal.NewFromInt(part).Div(decimal.NewFromInt(total)).Mul(decimal.NewFromInt(100)))
}
