// Package worker upgrades fallback-classified transactions to model
// categories, driven by AMQP messages and a periodic sweep.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/classifier"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// Store is the slice of the repository the worker sweeps with. Unlike the
// API surface it crosses user boundaries: the sweep covers every owner.
type Store interface {
	UncategorizedTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
}

// Ledger is the slice of the ledger engine the worker writes through, so
// that category updates follow the same rules as the API path.
type Ledger interface {
	Transaction(ctx context.Context, userID, id int64) (*core.Transaction, error)
	ApplyCategory(ctx context.Context, userID, id int64, category core.Category) error
}

// Classifier is the model-backed categorizer the worker retries with.
type Classifier interface {
	ClassifyWithOrigin(ctx context.Context, description string, amount decimal.Decimal, merchant string) (core.Category, classifier.Origin)
}

type BackfillWorker struct {
	store      Store
	ledger     Ledger
	classifier Classifier
	batchSize  int
	interval   time.Duration
	logger     *applog.Logger
}

func NewBackfillWorker(store Store, ledger Ledger, cls Classifier, batchSize int, interval time.Duration, logger *applog.Logger) *BackfillWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	}
	return &BackfillWorker{
		store:      store,
		ledger:     ledger,
		classifier: cls,
		batchSize:  batchSize,
		interval:   interval,
		logger:     logger,
	}
}

// HandleCategorizeMessage re-runs model classification for one transaction.
// A transaction that vanished, or that is a transfer leg, is dropped. When
// the model degrades to the fallback again the message is dropped too: the
// periodic sweep retries later, so requeueing would only spin the queue.
func (w *BackfillWorker) HandleCategorizeMessage(ctx context.Context, msg *amqp.CategorizeMessage) error {
	txn, err := w.ledger.Transaction(ctx, msg.UserID, msg.TransactionID)
	if err != nil {
		if core.IsNotFound(err) {
			w.logger.InfoContext(ctx, "Transaction gone, dropping categorize message",
				applog.FieldTransactionID, msg.TransactionID)
			return nil
		}
		return fmt.Errorf("load transaction %d: %w", msg.TransactionID, err)
	}
	if txn.Type == core.Transfer {
		return nil
	}

	category, origin := w.classifier.ClassifyWithOrigin(ctx, txn.Description, txn.Amount, "")
	if origin == classifier.OriginFallback {
		w.logger.WarnContext(ctx, "Model still unavailable, leaving transaction for sweep",
			applog.FieldTransactionID, txn.ID)
		return nil
	}

	if err := w.ledger.ApplyCategory(ctx, txn.UserID, txn.ID, category); err != nil {
		return fmt.Errorf("apply category: %w", err)
	}

	w.logger.InfoContext(ctx, "Backfilled category",
		applog.FieldTransactionID, txn.ID,
		applog.FieldCategory, string(category))
	return nil
}

// ProcessUncategorized sweeps one batch of transactions still carrying an
// empty or catch-all category and retries the model on each.
func (w *BackfillWorker) ProcessUncategorized(ctx context.Context) error {
	txns, err := w.store.UncategorizedTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("load uncategorized transactions: %w", err)
	}
	if len(txns) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Sweeping uncategorized transactions", "count", len(txns))

	upgraded := 0
	for _, txn := range txns {
		category, origin := w.classifier.ClassifyWithOrigin(ctx, txn.Description, txn.Amount, "")
		if origin == classifier.OriginFallback || category == txn.Category {
			continue
		}
		if err := w.ledger.ApplyCategory(ctx, txn.UserID, txn.ID, category); err != nil {
			w.logger.ErrorContext(ctx, "Failed to apply swept category",
				applog.FieldTransactionID, txn.ID,
				applog.FieldError, err.Error())
			continue
		}
		upgraded++
	}

	w.logger.InfoContext(ctx, "Sweep completed",
		"total", len(txns),
		"upgraded", upgraded)
	return nil
}

// Run sweeps on a fixed interval until the context is done. The first sweep
// happens immediately so a restart drains promptly.
func (w *BackfillWorker) Run(ctx context.Context) error {
	if err := w.ProcessUncategorized(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Initial sweep failed", applog.FieldError, err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessUncategorized(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Sweep failed", applog.FieldError, err.Error())
			}
		}
	}
}
