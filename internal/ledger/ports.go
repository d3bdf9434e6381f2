package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// BalanceDelta is one account-balance mutation applied inside the same
// atomic unit as the row writes it accompanies.
type BalanceDelta struct {
	AccountID int64
	Delta     decimal.Decimal
}

// Ports for the storage collaborator. Every method that carries deltas is an
// all-or-nothing unit: either every row write and every balance mutation
// lands, or none does.
type (
	AccountStore interface {
		CreateAccount(ctx context.Context, a *core.Account) error
		// Account returns the account regardless of its active flag; the
		// engine decides whether inactive counts as not found.
		Account(ctx context.Context, id, userID int64) (*core.Account, error)
		Accounts(ctx context.Context, userID int64) ([]core.Account, error)
		UpdateAccount(ctx context.Context, a *core.Account) error
		DeactivateAccount(ctx context.Context, id, userID int64) error
		AccountNameTaken(ctx context.Context, userID int64, name string) (bool, error)
	}

	TransactionStore interface {
		Transaction(ctx context.Context, id, userID int64) (*core.Transaction, error)
		TransactionsByGroup(ctx context.Context, groupID string, userID int64) ([]core.Transaction, error)
		Transactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error)
		// CreateTransactions persists the rows and applies the deltas in one
		// unit, assigning IDs to the rows on success.
		CreateTransactions(ctx context.Context, txns []*core.Transaction, deltas []BalanceDelta) error
		// UpdateTransaction persists the changed row and, when delta is
		// non-nil, the balance mutation in one unit.
		UpdateTransaction(ctx context.Context, txn *core.Transaction, delta *BalanceDelta) error
		// DeleteTransactions removes the rows and applies the deltas in one
		// unit.
		DeleteTransactions(ctx context.Context, userID int64, ids []int64, deltas []BalanceDelta) error
	}

	Store interface {
		AccountStore
		TransactionStore
	}
)

// ErrStoreNotFound is returned by Store implementations when a row is
// absent; the engine translates it into a caller-facing NotFound.
var ErrStoreNotFound = core.NotFoundf("store", "row not found")

// ErrStoreDuplicate is returned by Store implementations when a write hits
// a uniqueness constraint that raced past the engine's pre-check.
var ErrStoreDuplicate = errors.New("store: duplicate row")

// Publisher enqueues a category backfill request for a transaction whose
// model classification degraded at create time. Implementations must not
// block the create path on broker availability.
type Publisher interface {
	PublishCategorize(ctx context.Context, transactionID, userID int64) error
}
