// Package ledger enforces the account-balance invariants of the transaction
// ledger: every create, update and delete keeps each account's balance equal
// to the sum of the signed amounts of its persisted transactions, with
// transfers represented as a linked pair of legs.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/classifier"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// Classifier is the injected categorization capability, consulted when the
// caller did not supply a category. Implementations never fail: they answer
// with a valid category and the path (model or fallback) that produced it.
type Classifier interface {
	ClassifyWithOrigin(ctx context.Context, description string, amount decimal.Decimal, merchant string) (core.Category, classifier.Origin)
	ClassifyBatch(ctx context.Context, items []classifier.BatchItem) map[int64]core.Category
}

type Engine struct {
	store      Store
	classifier Classifier
	publisher  Publisher // nil when no broker is configured
	logger     *applog.Logger
	now        func() time.Time
}

func New(store Store, classifier Classifier, publisher Publisher, logger *applog.Logger) *Engine {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentLedger)
	}
	return &Engine{
		store:      store,
		classifier: classifier,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateTransactionParams is the caller-supplied transaction proposal.
type CreateTransactionParams struct {
	AccountID         int64
	Type              core.TransactionType
	Amount            decimal.Decimal
	Description       string
	Category          string // empty means: let the classifier decide
	Notes             string
	Reference         string
	TransferAccountID int64 // required for transfers, forbidden otherwise
	Date              time.Time
}

// CreateTransaction validates the proposal, resolves the category, applies
// the balance-mutation protocol for the transaction type and persists rows
// plus balance mutations as one atomic unit. For transfers the outgoing leg
// is returned as the canonical created record.
func (e *Engine) CreateTransaction(ctx context.Context, userID int64, p CreateTransactionParams) (*core.Transaction, error) {
	const op = "ledger.create_transaction"

	if !p.Type.Valid() {
		return nil, core.Invalidf(op, "transaction type must be one of: income, expense, transfer")
	}
	if p.Amount.IsZero() {
		return nil, core.Invalidf(op, "amount cannot be zero")
	}
	if strings.TrimSpace(p.Description) == "" {
		return nil, core.Invalidf(op, "description cannot be empty")
	}
	switch p.Type {
	case core.Transfer:
		if p.TransferAccountID == 0 {
			return nil, core.Invalidf(op, "transfer transactions must specify transfer_account_id")
		}
		if p.TransferAccountID == p.AccountID {
			return nil, core.Invalidf(op, "cannot transfer to the same account")
		}
	default:
		if p.TransferAccountID != 0 {
			return nil, core.Invalidf(op, "%s transactions cannot have transfer_account_id", p.Type)
		}
	}

	account, err := e.activeAccount(ctx, op, p.AccountID, userID)
	if err != nil {
		return nil, err
	}

	category, origin, err := e.resolveCategory(ctx, op, p)
	if err != nil {
		return nil, err
	}

	if p.Date.IsZero() {
		p.Date = e.now()
	}

	if p.Type == core.Transfer {
		return e.createTransfer(ctx, userID, account, p)
	}

	amount := core.NormalizeAmount(p.Type, p.Amount)
	txn := &core.Transaction{
		UserID:      userID,
		AccountID:   account.ID,
		Amount:      amount,
		Description: p.Description,
		Category:    category,
		Type:        p.Type,
		Notes:       p.Notes,
		Reference:   p.Reference,
		Date:        p.Date,
	}

	deltas := []BalanceDelta{{AccountID: account.ID, Delta: amount}}
	if err := e.store.CreateTransactions(ctx, []*core.Transaction{txn}, deltas); err != nil {
		return nil, core.Internal(op, err)
	}

	e.logger.InfoContext(ctx, "Transaction created",
		applog.FieldTransactionID, txn.ID,
		applog.FieldAccountID, account.ID,
		applog.FieldAmount, core.FormatAmount(amount),
		applog.FieldCategory, string(category))

	e.maybeScheduleBackfill(ctx, txn, origin)
	return txn, nil
}

func (e *Engine) createTransfer(ctx context.Context, userID int64, source *core.Account, p CreateTransactionParams) (*core.Transaction, error) {
	const op = "ledger.create_transfer"

	dest, err := e.activeAccount(ctx, op, p.TransferAccountID, userID)
	if err != nil {
		return nil, err
	}

	amount := p.Amount.Abs()
	groupID := uuid.NewString()

	outgoing := &core.Transaction{
		UserID:            userID,
		AccountID:         source.ID,
		Amount:            amount.Neg(),
		Description:       "Transfer to " + dest.Name,
		Category:          core.CategoryTransfer,
		Type:              core.Transfer,
		Notes:             p.Notes,
		Reference:         p.Reference,
		TransferAccountID: dest.ID,
		TransferGroupID:   groupID,
		Date:              p.Date,
	}
	incoming := &core.Transaction{
		UserID:            userID,
		AccountID:         dest.ID,
		Amount:            amount,
		Description:       "Transfer from " + source.Name,
		Category:          core.CategoryTransfer,
		Type:              core.Transfer,
		Notes:             p.Notes,
		Reference:         p.Reference,
		TransferAccountID: source.ID,
		TransferGroupID:   groupID,
		Date:              p.Date,
	}

	deltas := []BalanceDelta{
		{AccountID: source.ID, Delta: amount.Neg()},
		{AccountID: dest.ID, Delta: amount},
	}
	if err := e.store.CreateTransactions(ctx, []*core.Transaction{outgoing, incoming}, deltas); err != nil {
		return nil, core.Internal(op, err)
	}

	e.logger.InfoContext(ctx, "Transfer created",
		applog.FieldTransferGroup, groupID,
		applog.FieldAccountID, source.ID,
		"transfer_account_id", dest.ID,
		applog.FieldAmount, core.FormatAmount(amount))

	return outgoing, nil
}

// UpdateTransactionParams carries the patch; nil fields are left unchanged.
type UpdateTransactionParams struct {
	Amount      *decimal.Decimal
	Description *string
	Category    *string
	Notes       *string
	Reference   *string
	Date        *time.Time
}

// UpdateTransaction applies the patch. An amount change computes the delta
// against the stored amount (after sign normalization for the transaction's
// type) and applies it to the account balance in the same atomic unit as the
// field updates. Amount changes on a transfer leg are rejected: the sibling
// leg would silently diverge.
func (e *Engine) UpdateTransaction(ctx context.Context, userID, id int64, p UpdateTransactionParams) (*core.Transaction, error) {
	const op = "ledger.update_transaction"

	txn, err := e.ownedTransaction(ctx, op, id, userID)
	if err != nil {
		return nil, err
	}

	var delta *BalanceDelta
	if p.Amount != nil {
		if p.Amount.IsZero() {
			return nil, core.Invalidf(op, "amount cannot be zero")
		}
		if txn.IsTransferLeg() {
			return nil, core.Invalidf(op, "cannot change the amount of a transfer leg; delete the transfer and create a new one")
		}
		newAmount := core.NormalizeAmount(txn.Type, *p.Amount)
		d := newAmount.Sub(txn.Amount)
		if !d.IsZero() {
			delta = &BalanceDelta{AccountID: txn.AccountID, Delta: d}
		}
		txn.Amount = newAmount
	}
	if p.Description != nil {
		if strings.TrimSpace(*p.Description) == "" {
			return nil, core.Invalidf(op, "description cannot be empty")
		}
		txn.Description = *p.Description
	}
	if p.Category != nil {
		category, ok := core.ParseCategory(*p.Category)
		if !ok {
			return nil, core.Invalidf(op, "unknown category %q", *p.Category)
		}
		txn.Category = category
	}
	if p.Notes != nil {
		txn.Notes = *p.Notes
	}
	if p.Reference != nil {
		txn.Reference = *p.Reference
	}
	if p.Date != nil {
		txn.Date = *p.Date
	}

	if err := e.store.UpdateTransaction(ctx, txn, delta); err != nil {
		return nil, core.Internal(op, err)
	}

	e.logger.InfoContext(ctx, "Transaction updated",
		applog.FieldTransactionID, txn.ID,
		applog.FieldAccountID, txn.AccountID,
		applog.FieldAmount, core.FormatAmount(txn.Amount))

	return txn, nil
}

// DeleteTransaction reverses the transaction's balance effect and removes
// the row, atomically. Deleting a transfer leg removes BOTH legs and
// reverses both balances so the pair never diverges.
func (e *Engine) DeleteTransaction(ctx context.Context, userID, id int64) error {
	const op = "ledger.delete_transaction"

	txn, err := e.ownedTransaction(ctx, op, id, userID)
	if err != nil {
		return err
	}

	ids := []int64{txn.ID}
	deltas := []BalanceDelta{{AccountID: txn.AccountID, Delta: txn.Amount.Neg()}}

	if txn.IsTransferLeg() {
		legs, err := e.store.TransactionsByGroup(ctx, txn.TransferGroupID, userID)
		if err != nil {
			return core.Internal(op, err)
		}
		ids = ids[:0]
		deltas = deltas[:0]
		for _, leg := range legs {
			ids = append(ids, leg.ID)
			deltas = append(deltas, BalanceDelta{AccountID: leg.AccountID, Delta: leg.Amount.Neg()})
		}
	}

	if err := e.store.DeleteTransactions(ctx, userID, ids, deltas); err != nil {
		return core.Internal(op, err)
	}

	e.logger.InfoContext(ctx, "Transaction deleted",
		applog.FieldTransactionID, id,
		"rows_removed", len(ids))

	return nil
}

// Transaction returns a single owned transaction.
func (e *Engine) Transaction(ctx context.Context, userID, id int64) (*core.Transaction, error) {
	return e.ownedTransaction(ctx, "ledger.get_transaction", id, userID)
}

// Transactions lists transactions for the owner with optional filters.
func (e *Engine) Transactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error) {
	const op = "ledger.list_transactions"
	txns, err := e.store.Transactions(ctx, filter)
	if err != nil {
		return nil, core.Internal(op, err)
	}
	return txns, nil
}

// Summarize aggregates the owner's transactions over the optional account
// and inclusive date-range filters.
func (e *Engine) Summarize(ctx context.Context, filter core.TransactionFilter) (core.Summary, error) {
	const op = "ledger.summarize"
	txns, err := e.store.Transactions(ctx, filter)
	if err != nil {
		return core.Summary{}, core.Internal(op, err)
	}
	return core.Summarize(txns), nil
}

// BulkCategorize classifies the named transactions and persists the
// resulting categories. Balances are untouched. The returned map holds the
// category now stored for each requested id.
func (e *Engine) BulkCategorize(ctx context.Context, userID int64, ids []int64) (map[int64]core.Category, error) {
	const op = "ledger.bulk_categorize"

	items := make([]classifier.BatchItem, 0, len(ids))
	byID := make(map[int64]*core.Transaction, len(ids))
	for _, id := range ids {
		txn, err := e.ownedTransaction(ctx, op, id, userID)
		if err != nil {
			return nil, err
		}
		if txn.Type == core.Transfer {
			// Transfer legs are always category=transfer.
			continue
		}
		items = append(items, classifier.BatchItem{ID: txn.ID, Description: txn.Description, Amount: txn.Amount})
		byID[txn.ID] = txn
	}

	categories := e.classifier.ClassifyBatch(ctx, items)

	out := make(map[int64]core.Category, len(categories))
	for id, category := range categories {
		txn := byID[id]
		txn.Category = category
		if err := e.store.UpdateTransaction(ctx, txn, nil); err != nil {
			return nil, core.Internal(op, err)
		}
		out[id] = category
	}
	return out, nil
}

// ApplyCategory stores a classifier-resolved category on a transaction,
// used by the backfill worker. Transfer legs are left alone.
func (e *Engine) ApplyCategory(ctx context.Context, userID, id int64, category core.Category) error {
	const op = "ledger.apply_category"

	txn, err := e.ownedTransaction(ctx, op, id, userID)
	if err != nil {
		return err
	}
	if txn.Type == core.Transfer {
		return nil
	}
	txn.Category = category
	if err := e.store.UpdateTransaction(ctx, txn, nil); err != nil {
		return core.Internal(op, err)
	}
	return nil
}

func (e *Engine) resolveCategory(ctx context.Context, op string, p CreateTransactionParams) (core.Category, classifier.Origin, error) {
	if p.Type == core.Transfer {
		return core.CategoryTransfer, "", nil
	}
	if p.Category != "" {
		category, ok := core.ParseCategory(p.Category)
		if !ok {
			return "", "", core.Invalidf(op, "unknown category %q", p.Category)
		}
		return category, "", nil
	}
	category, origin := e.classifier.ClassifyWithOrigin(ctx, p.Description, core.NormalizeAmount(p.Type, p.Amount), "")
	return category, origin, nil
}

// maybeScheduleBackfill publishes a categorize message when the model path
// degraded, fire-and-forget: the transaction is already persisted.
func (e *Engine) maybeScheduleBackfill(ctx context.Context, txn *core.Transaction, origin classifier.Origin) {
	if e.publisher == nil || origin != classifier.OriginFallback {
		return
	}
	if err := e.publisher.PublishCategorize(ctx, txn.ID, txn.UserID); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish categorize message",
			applog.FieldTransactionID, txn.ID,
			applog.FieldError, err.Error())
	}
}

func (e *Engine) activeAccount(ctx context.Context, op string, id, userID int64) (*core.Account, error) {
	account, err := e.store.Account(ctx, id, userID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, core.NotFoundf(op, "account %d not found", id)
		}
		return nil, core.Internal(op, err)
	}
	if !account.IsActive {
		return nil, core.NotFoundf(op, "account %d not found", id)
	}
	return account, nil
}

func (e *Engine) ownedTransaction(ctx context.Context, op string, id, userID int64) (*core.Transaction, error) {
	txn, err := e.store.Transaction(ctx, id, userID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, core.NotFoundf(op, "transaction %d not found", id)
		}
		return nil, core.Internal(op, err)
	}
	return txn, nil
}
