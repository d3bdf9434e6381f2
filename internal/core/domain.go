package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Checking   AccountType = "checking"
	Savings    AccountType = "savings"
	CreditCard AccountType = "credit_card"
	Investment AccountType = "investment"
	Cash       AccountType = "cash"
)

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

type (
	AccountType     string
	TransactionType string

	Account struct {
		ID        int64
		UserID    int64
		Name      string
		Type      AccountType
		Balance   decimal.Decimal
		IsActive  bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Transaction struct {
		ID          int64
		UserID      int64
		AccountID   int64
		Amount      decimal.Decimal
		Description string
		Category    Category
		Type        TransactionType
		Notes       string
		Reference   string
		// TransferAccountID is the counterparty account of a transfer leg.
		// Zero for income and expense transactions.
		TransferAccountID int64
		// TransferGroupID links the two legs of a transfer so they can be
		// deleted as a pair. Empty for income and expense transactions.
		TransferGroupID string
		Date            time.Time
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	User struct {
		ID           int64
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}
)

func (t AccountType) Valid() bool {
	switch t {
	case Checking, Savings, CreditCard, Investment, Cash:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

// IsTransferLeg reports whether the transaction is one side of a transfer.
func (t *Transaction) IsTransferLeg() bool {
	return t.Type == Transfer && t.TransferGroupID != ""
}

// NormalizeAmount forces the sign convention for the declared type:
// income is stored positive, expense negative, regardless of the sign the
// caller supplied. Transfer amounts are normalized per leg by the ledger.
func NormalizeAmount(typ TransactionType, amount decimal.Decimal) decimal.Decimal {
	switch typ {
	case Income:
		return amount.Abs()
	case Expense:
		return amount.Abs().Neg()
	}
	return amount
}

// ValidateAccountName checks the display-name constraints applied at
// account creation.
func ValidateAccountName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Invalidf("core.account", "account name cannot be empty")
	}
	if len(trimmed) > 100 {
		return Invalidf("core.account", "account name too long (max 100 characters)")
	}
	return nil
}

// TransactionFilter selects transactions for list and summary queries.
// Zero values leave the corresponding predicate unbound.
type TransactionFilter struct {
	UserID            int64
	AccountID         int64
	From              time.Time // inclusive
	To                time.Time // inclusive
	OnlyUncategorized bool
	Limit             int
	Offset            int
}
