package core

import "github.com/shopspring/decimal"

// Summary aggregates a filtered transaction set for reporting.
type Summary struct {
	TotalIncome      decimal.Decimal
	TotalExpenses    decimal.Decimal
	NetAmount        decimal.Decimal
	TransactionCount int
}

// Summarize folds a transaction set into totals. TotalIncome is the sum of
// positive amounts, TotalExpenses the absolute value of the sum of negative
// amounts, NetAmount their difference. Transfer legs count independently.
func Summarize(txns []Transaction) Summary {
	income := decimal.Zero
	expenses := decimal.Zero
	for _, t := range txns {
		switch {
		case t.Amount.IsPositive():
			income = income.Add(t.Amount)
		case t.Amount.IsNegative():
			expenses = expenses.Add(t.Amount)
		}
	}
	expenses = expenses.Abs()
	return Summary{
		TotalIncome:      income,
		TotalExpenses:    expenses,
		NetAmount:        income.Sub(expenses),
		TransactionCount: len(txns),
	}
}
