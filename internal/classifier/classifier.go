// Package classifier maps transaction descriptions to the closed spending
// category enumeration. The primary path delegates to an external model
// behind the ModelClient interface; when the model is absent or fails, a
// deterministic keyword fallback answers instead. Classify never returns an
// error to the caller.
package classifier

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// Origin records which path produced a category.
type Origin string

const (
	OriginModel    Origin = "model"
	OriginFallback Origin = "fallback"
)

// ModelClient is the external classification capability. Implementations
// return one line of text naming a category, or an error.
type ModelClient interface {
	SuggestCategory(ctx context.Context, prompt string) (string, error)
}

// BatchItem is one entry of a batch classification request.
type BatchItem struct {
	ID          int64
	Description string
	Amount      decimal.Decimal
	Merchant    string
}

type Classifier struct {
	client      ModelClient // nil when AI classification is disabled
	timeout     time.Duration
	concurrency int
	logger      *applog.Logger
}

// New builds a classifier. client may be nil, in which case every call takes
// the fallback path.
func New(client ModelClient, timeout time.Duration, concurrency int, logger *applog.Logger) *Classifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentClassifier)
	}
	return &Classifier{
		client:      client,
		timeout:     timeout,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Enabled reports whether the model path is configured.
func (c *Classifier) Enabled() bool { return c.client != nil }

// Classify resolves a category for the given transaction details. It always
// returns a valid category.
func (c *Classifier) Classify(ctx context.Context, description string, amount decimal.Decimal, merchant string) core.Category {
	category, _ := c.ClassifyWithOrigin(ctx, description, amount, merchant)
	return category
}

// ClassifyWithOrigin is Classify plus the path that produced the answer, so
// the ledger can schedule a model backfill after a fallback degradation.
func (c *Classifier) ClassifyWithOrigin(ctx context.Context, description string, amount decimal.Decimal, merchant string) (core.Category, Origin) {
	if c.client != nil {
		category, err := c.classifyWithModel(ctx, description, amount, merchant)
		if err == nil {
			c.logger.InfoContext(ctx, "Transaction categorized",
				applog.FieldDescription, description,
				applog.FieldCategory, string(category),
				applog.FieldOrigin, string(OriginModel))
			return category, OriginModel
		}
		// Model failures degrade silently to the fallback path.
		c.logger.ErrorContext(ctx, "Model classification failed, using fallback",
			applog.FieldDescription, description,
			applog.FieldError, err.Error())
	}

	category := fallbackCategory(description, amount)
	c.logger.InfoContext(ctx, "Transaction categorized",
		applog.FieldDescription, description,
		applog.FieldCategory, string(category),
		applog.FieldOrigin, string(OriginFallback))
	return category, OriginFallback
}

// ClassifyBatch applies the Classify contract to each item independently and
// returns a mapping from item ID to category. Items share no state, so they
// run in parallel up to the configured concurrency limit.
func (c *Classifier) ClassifyBatch(ctx context.Context, items []BatchItem) map[int64]core.Category {
	results := make([]core.Category, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, item := range items {
		g.Go(func() error {
			results[i] = c.Classify(gctx, item.Description, item.Amount, item.Merchant)
			return nil
		})
	}
	// Workers never return errors; Wait only orders the writes above.
	_ = g.Wait()

	out := make(map[int64]core.Category, len(items))
	for i, item := range items {
		out[item.ID] = results[i]
	}
	return out
}

func (c *Classifier) classifyWithModel(ctx context.Context, description string, amount decimal.Decimal, merchant string) (core.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.client.SuggestCategory(ctx, BuildPrompt(description, amount, merchant))
	if err != nil {
		return core.CategoryOther, err
	}

	category, ok := core.ParseCategory(raw)
	if !ok {
		c.logger.WarnContext(ctx, "Model returned unknown category, coercing to other",
			applog.FieldDescription, description,
			applog.FieldCategory, strings.TrimSpace(raw))
		return core.CategoryOther, nil
	}
	return category, nil
}

// BuildPrompt renders the closed-category classification prompt sent to the
// external model.
func BuildPrompt(description string, amount decimal.Decimal, merchant string) string {
	kind := "expense"
	if amount.IsPositive() {
		kind = "income"
	}

	var b strings.Builder
	b.WriteString("Categorize this financial transaction into ONE of these exact categories:\n")
	b.WriteString(strings.Join(core.CategoryNames(), ", "))
	b.WriteString("\n\nTransaction details:\n")
	b.WriteString("- Description: \"" + description + "\"\n")
	b.WriteString("- Amount: " + core.FormatAmount(amount.Abs()) + " (" + kind + ")\n")
	if merchant != "" {
		b.WriteString("- Merchant: " + merchant + "\n")
	}
	b.WriteString("\nRules:\n")
	b.WriteString("1. Return ONLY the category name, nothing else\n")
	b.WriteString("2. Use lowercase with underscores (e.g., \"food_dining\")\n")
	b.WriteString("3. Choose the most specific category that applies\n")
	b.WriteString("4. If unsure, use \"other\"\n")
	b.WriteString("\nCategory:")
	return b.String()
}
