package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/classifier"
	"fintrack/internal/core"
)

type fakeLedger struct {
	txns    map[int64]*core.Transaction
	applied map[int64]core.Category
}

func newFakeLedger(txns ...*core.Transaction) *fakeLedger {
	l := &fakeLedger{
		txns:    make(map[int64]*core.Transaction),
		applied: make(map[int64]core.Category),
	}
	for _, t := range txns {
		l.txns[t.ID] = t
	}
	return l
}

func (l *fakeLedger) Transaction(ctx context.Context, userID, id int64) (*core.Transaction, error) {
	t, ok := l.txns[id]
	if !ok || t.UserID != userID {
		return nil, core.NotFoundf("test", "transaction %d not found", id)
	}
	return t, nil
}

func (l *fakeLedger) ApplyCategory(ctx context.Context, userID, id int64, category core.Category) error {
	t, ok := l.txns[id]
	if !ok || t.UserID != userID {
		return core.NotFoundf("test", "transaction %d not found", id)
	}
	t.Category = category
	l.applied[id] = category
	return nil
}

type fakeStore struct {
	uncategorized []core.Transaction
	err           error
}

func (s *fakeStore) UncategorizedTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.uncategorized) {
		return s.uncategorized[:limit], nil
	}
	return s.uncategorized, nil
}

type fakeClassifier struct {
	category core.Category
	origin   classifier.Origin
	calls    int
}

func (c *fakeClassifier) ClassifyWithOrigin(ctx context.Context, description string, amount decimal.Decimal, merchant string) (core.Category, classifier.Origin) {
	c.calls++
	return c.category, c.origin
}

func expenseRow(id, userID int64, desc string, category core.Category) *core.Transaction {
	return &core.Transaction{
		ID: id, UserID: userID, AccountID: 1,
		Amount:      decimal.RequireFromString("-10.00"),
		Description: desc, Category: category, Type: core.Expense,
		Date: time.Now(),
	}
}

func TestHandleCategorizeMessage_AppliesModelCategory(t *testing.T) {
	row := expenseRow(7, 1, "Shell Gas Station", core.CategoryOther)
	ledger := newFakeLedger(row)
	cls := &fakeClassifier{category: core.CategoryTransportation, origin: classifier.OriginModel}
	w := NewBackfillWorker(&fakeStore{}, ledger, cls, 10, time.Minute, nil)

	err := w.HandleCategorizeMessage(context.Background(), &amqp.CategorizeMessage{TransactionID: 7, UserID: 1})
	if err != nil {
		t.Fatalf("HandleCategorizeMessage: %v", err)
	}
	if ledger.applied[7] != core.CategoryTransportation {
		t.Errorf("applied = %v, want transportation", ledger.applied)
	}
}

func TestHandleCategorizeMessage_FallbackDropsMessage(t *testing.T) {
	row := expenseRow(7, 1, "Mystery Shop", core.CategoryOther)
	ledger := newFakeLedger(row)
	cls := &fakeClassifier{category: core.CategoryOther, origin: classifier.OriginFallback}
	w := NewBackfillWorker(&fakeStore{}, ledger, cls, 10, time.Minute, nil)

	err := w.HandleCategorizeMessage(context.Background(), &amqp.CategorizeMessage{TransactionID: 7, UserID: 1})
	if err != nil {
		t.Fatalf("HandleCategorizeMessage: %v", err)
	}
	if len(ledger.applied) != 0 {
		t.Errorf("fallback result applied: %v", ledger.applied)
	}
}

func TestHandleCategorizeMessage_MissingTransactionDropped(t *testing.T) {
	ledger := newFakeLedger()
	cls := &fakeClassifier{category: core.CategoryShopping, origin: classifier.OriginModel}
	w := NewBackfillWorker(&fakeStore{}, ledger, cls, 10, time.Minute, nil)

	err := w.HandleCategorizeMessage(context.Background(), &amqp.CategorizeMessage{TransactionID: 99, UserID: 1})
	if err != nil {
		t.Errorf("missing transaction should not error (no requeue): %v", err)
	}
	if cls.calls != 0 {
		t.Error("classifier called for missing transaction")
	}
}

func TestHandleCategorizeMessage_TransferLegSkipped(t *testing.T) {
	row := &core.Transaction{
		ID: 7, UserID: 1, AccountID: 1,
		Amount: decimal.RequireFromString("-200.00"), Description: "Transfer to Savings",
		Category: core.CategoryTransfer, Type: core.Transfer, TransferGroupID: "g1",
	}
	ledger := newFakeLedger(row)
	cls := &fakeClassifier{category: core.CategoryShopping, origin: classifier.OriginModel}
	w := NewBackfillWorker(&fakeStore{}, ledger, cls, 10, time.Minute, nil)

	if err := w.HandleCategorizeMessage(context.Background(), &amqp.CategorizeMessage{TransactionID: 7, UserID: 1}); err != nil {
		t.Fatalf("HandleCategorizeMessage: %v", err)
	}
	if cls.calls != 0 || len(ledger.applied) != 0 {
		t.Error("transfer leg was classified")
	}
}

func TestProcessUncategorized(t *testing.T) {
	rows := []core.Transaction{
		*expenseRow(1, 1, "Shell", core.CategoryOther),
		*expenseRow(2, 2, "Unknown place", ""),
	}
	ledger := newFakeLedger()
	for i := range rows {
		row := rows[i]
		ledger.txns[row.ID] = &row
	}
	store := &fakeStore{uncategorized: rows}
	cls := &fakeClassifier{category: core.CategoryTransportation, origin: classifier.OriginModel}
	w := NewBackfillWorker(store, ledger, cls, 10, time.Minute, nil)

	if err := w.ProcessUncategorized(context.Background()); err != nil {
		t.Fatalf("ProcessUncategorized: %v", err)
	}
	if len(ledger.applied) != 2 {
		t.Errorf("applied %d categories, want 2 (both users swept)", len(ledger.applied))
	}
	if ledger.applied[2] != core.CategoryTransportation {
		t.Errorf("user 2 row = %v", ledger.applied[2])
	}
}

func TestProcessUncategorized_FallbackLeavesRows(t *testing.T) {
	store := &fakeStore{uncategorized: []core.Transaction{*expenseRow(1, 1, "Shell", core.CategoryOther)}}
	ledger := newFakeLedger(expenseRow(1, 1, "Shell", core.CategoryOther))
	cls := &fakeClassifier{category: core.CategoryOther, origin: classifier.OriginFallback}
	w := NewBackfillWorker(store, ledger, cls, 10, time.Minute, nil)

	if err := w.ProcessUncategorized(context.Background()); err != nil {
		t.Fatalf("ProcessUncategorized: %v", err)
	}
	if len(ledger.applied) != 0 {
		t.Errorf("fallback results applied: %v", ledger.applied)
	}
}

func TestProcessUncategorized_StoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("db gone")}
	w := NewBackfillWorker(store, newFakeLedger(), &fakeClassifier{}, 10, time.Minute, nil)

	if err := w.ProcessUncategorized(context.Background()); err == nil {
		t.Error("expected error when store fails")
	}
}
