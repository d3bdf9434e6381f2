package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/classifier"
	"fintrack/internal/core"
)

// memStore is an in-memory Store used by the engine tests. Each primitive
// that carries deltas applies rows and balances together or not at all.
type memStore struct {
	accounts map[int64]*core.Account
	txns     map[int64]*core.Transaction
	nextID   int64

	failWrites bool // next write primitive fails without mutating
	dupWrites  bool // account writes hit the unique index without mutating
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[int64]*core.Account),
		txns:     make(map[int64]*core.Transaction),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addAccount(userID int64, name string, balance string) *core.Account {
	a := &core.Account{
		ID:       s.id(),
		UserID:   userID,
		Name:     name,
		Type:     core.Checking,
		Balance:  decimal.RequireFromString(balance),
		IsActive: true,
	}
	s.accounts[a.ID] = a
	return a
}

func (s *memStore) CreateAccount(ctx context.Context, a *core.Account) error {
	if s.dupWrites {
		return ErrStoreDuplicate
	}
	a.ID = s.id()
	clone := *a
	s.accounts[a.ID] = &clone
	return nil
}

func (s *memStore) Account(ctx context.Context, id, userID int64) (*core.Account, error) {
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return nil, ErrStoreNotFound
	}
	clone := *a
	return &clone, nil
}

func (s *memStore) Accounts(ctx context.Context, userID int64) ([]core.Account, error) {
	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID && a.IsActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *memStore) UpdateAccount(ctx context.Context, a *core.Account) error {
	if s.dupWrites {
		return ErrStoreDuplicate
	}
	if _, ok := s.accounts[a.ID]; !ok {
		return ErrStoreNotFound
	}
	clone := *a
	s.accounts[a.ID] = &clone
	return nil
}

func (s *memStore) DeactivateAccount(ctx context.Context, id, userID int64) error {
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return ErrStoreNotFound
	}
	a.IsActive = false
	return nil
}

func (s *memStore) AccountNameTaken(ctx context.Context, userID int64, name string) (bool, error) {
	for _, a := range s.accounts {
		if a.UserID == userID && a.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) Transaction(ctx context.Context, id, userID int64) (*core.Transaction, error) {
	t, ok := s.txns[id]
	if !ok || t.UserID != userID {
		return nil, ErrStoreNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *memStore) TransactionsByGroup(ctx context.Context, groupID string, userID int64) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range s.txns {
		if t.UserID == userID && t.TransferGroupID == groupID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *memStore) Transactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range s.txns {
		if t.UserID != filter.UserID {
			continue
		}
		if filter.AccountID != 0 && t.AccountID != filter.AccountID {
			continue
		}
		if !filter.From.IsZero() && t.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && t.Date.After(filter.To) {
			continue
		}
		if filter.OnlyUncategorized && t.Category != "" && t.Category != core.CategoryOther {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *memStore) CreateTransactions(ctx context.Context, txns []*core.Transaction, deltas []BalanceDelta) error {
	if s.failWrites {
		return errors.New("storage unavailable")
	}
	if err := s.checkDeltas(deltas); err != nil {
		return err
	}
	for _, t := range txns {
		t.ID = s.id()
		clone := *t
		s.txns[t.ID] = &clone
	}
	s.applyDeltas(deltas)
	return nil
}

func (s *memStore) UpdateTransaction(ctx context.Context, txn *core.Transaction, delta *BalanceDelta) error {
	if s.failWrites {
		return errors.New("storage unavailable")
	}
	if _, ok := s.txns[txn.ID]; !ok {
		return ErrStoreNotFound
	}
	if delta != nil {
		if err := s.checkDeltas([]BalanceDelta{*delta}); err != nil {
			return err
		}
		s.applyDeltas([]BalanceDelta{*delta})
	}
	clone := *txn
	s.txns[txn.ID] = &clone
	return nil
}

func (s *memStore) DeleteTransactions(ctx context.Context, userID int64, ids []int64, deltas []BalanceDelta) error {
	if s.failWrites {
		return errors.New("storage unavailable")
	}
	for _, id := range ids {
		t, ok := s.txns[id]
		if !ok || t.UserID != userID {
			return ErrStoreNotFound
		}
	}
	if err := s.checkDeltas(deltas); err != nil {
		return err
	}
	for _, id := range ids {
		delete(s.txns, id)
	}
	s.applyDeltas(deltas)
	return nil
}

func (s *memStore) checkDeltas(deltas []BalanceDelta) error {
	for _, d := range deltas {
		if _, ok := s.accounts[d.AccountID]; !ok {
			return fmt.Errorf("account %d missing", d.AccountID)
		}
	}
	return nil
}

func (s *memStore) applyDeltas(deltas []BalanceDelta) {
	for _, d := range deltas {
		a := s.accounts[d.AccountID]
		a.Balance = a.Balance.Add(d.Delta)
	}
}

func (s *memStore) balance(id int64) string {
	return s.accounts[id].Balance.StringFixed(2)
}

// stubClassifier satisfies the engine's Classifier port with a canned
// category, recording what it was asked.
type stubClassifier struct {
	category core.Category
	origin   classifier.Origin
	asked    []string
}

func (c *stubClassifier) ClassifyWithOrigin(ctx context.Context, description string, amount decimal.Decimal, merchant string) (core.Category, classifier.Origin) {
	c.asked = append(c.asked, description)
	origin := c.origin
	if origin == "" {
		origin = classifier.OriginModel
	}
	return c.category, origin
}

func (c *stubClassifier) ClassifyBatch(ctx context.Context, items []classifier.BatchItem) map[int64]core.Category {
	out := make(map[int64]core.Category, len(items))
	for _, item := range items {
		c.asked = append(c.asked, item.Description)
		out[item.ID] = c.category
	}
	return out
}

// recordingPublisher captures backfill publications.
type recordingPublisher struct {
	published []int64
	err       error
}

func (p *recordingPublisher) PublishCategorize(ctx context.Context, transactionID, userID int64) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, transactionID)
	return nil
}
