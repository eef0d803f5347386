package core

import "github.com/shopspring/decimal"

// BalanceSummary aggregates all of a user's transactions.
type BalanceSummary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
}

// Balance returns income minus expenses.
func (b BalanceSummary) Balance() decimal.Decimal {
	return b.TotalIncome.Sub(b.TotalExpense)
}

// MonthSummary is a compact summary for a specific year+month.
type MonthSummary struct {
	Year    int
	Month   int // 1-12
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Net returns the month's income minus expenses.
func (m MonthSummary) Net() decimal.Decimal {
	return m.Income.Sub(m.Expense)
}
