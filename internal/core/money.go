// Package core holds the domain model shared by the ledger, classifier and
// storage layers: accounts, transactions, categories, money handling and the
// closed error taxonomy.
package core

import (
	"github.com/shopspring/decimal"
)

// Account balances must stay inside these bounds at creation time. The
// bound is an input-validation constraint only; later balance mutations are
// not re-checked against it.
var (
	MinBalance = decimal.RequireFromString("-999999.99")
	MaxBalance = decimal.RequireFromString("999999999.99")
)

// ParseAmount converts a decimal string to a monetary amount with exactly
// two fraction digits. Extra digits round half away from zero, matching how
// amounts are persisted. Binary floating point is never involved.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Invalidf("core.amount", "invalid amount %q", s)
	}
	return d.Round(2), nil
}

// ValidateOpeningBalance checks the creation-time balance bound.
func ValidateOpeningBalance(b decimal.Decimal) error {
	if b.LessThan(MinBalance) {
		return Invalidf("core.account", "balance cannot be less than %s", MinBalance)
	}
	if b.GreaterThan(MaxBalance) {
		return Invalidf("core.account", "balance cannot be more than %s", MaxBalance)
	}
	return nil
}

// FormatAmount renders an amount with exactly two fraction digits, the wire
// and storage representation used everywhere.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
