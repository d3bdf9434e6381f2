package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// CreateAccountParams is the caller-supplied account proposal.
type CreateAccountParams struct {
	Name    string
	Type    core.AccountType
	Balance decimal.Decimal
}

// CreateAccount validates the proposal and persists the account. The display
// name must be unique among the owner's accounts and the opening balance
// must sit inside the creation-time bound.
func (e *Engine) CreateAccount(ctx context.Context, userID int64, p CreateAccountParams) (*core.Account, error) {
	const op = "ledger.create_account"

	if err := core.ValidateAccountName(p.Name); err != nil {
		return nil, err
	}
	if !p.Type.Valid() {
		return nil, core.Invalidf(op, "account type must be one of: checking, savings, credit_card, investment, cash")
	}
	if err := core.ValidateOpeningBalance(p.Balance); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(p.Name)
	taken, err := e.store.AccountNameTaken(ctx, userID, name)
	if err != nil {
		return nil, core.Internal(op, err)
	}
	if taken {
		return nil, core.Invalidf(op, "account name %q already in use", name)
	}

	account := &core.Account{
		UserID:   userID,
		Name:     name,
		Type:     p.Type,
		Balance:  p.Balance.Round(2),
		IsActive: true,
	}
	if err := e.store.CreateAccount(ctx, account); err != nil {
		// A concurrent create can slip past the pre-check; the unique
		// index is the authority.
		if errors.Is(err, ErrStoreDuplicate) {
			return nil, core.Invalidf(op, "account name %q already in use", name)
		}
		return nil, core.Internal(op, err)
	}

	e.logger.InfoContext(ctx, "Account created",
		applog.FieldAccountID, account.ID,
		applog.FieldUserID, userID,
		"account_type", string(p.Type))

	return account, nil
}

// Account returns a single active account owned by the caller.
func (e *Engine) Account(ctx context.Context, userID, id int64) (*core.Account, error) {
	return e.activeAccount(ctx, "ledger.get_account", id, userID)
}

// Accounts lists the caller's active accounts.
func (e *Engine) Accounts(ctx context.Context, userID int64) ([]core.Account, error) {
	const op = "ledger.list_accounts"
	accounts, err := e.store.Accounts(ctx, userID)
	if err != nil {
		return nil, core.Internal(op, err)
	}
	return accounts, nil
}

// UpdateAccountParams carries the patch; nil fields are left unchanged.
// Balance is deliberately absent: balances move only through transactions.
type UpdateAccountParams struct {
	Name *string
	Type *core.AccountType
}

// UpdateAccount applies the patch to an active account.
func (e *Engine) UpdateAccount(ctx context.Context, userID, id int64, p UpdateAccountParams) (*core.Account, error) {
	const op = "ledger.update_account"

	account, err := e.activeAccount(ctx, op, id, userID)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		if err := core.ValidateAccountName(*p.Name); err != nil {
			return nil, err
		}
		name := strings.TrimSpace(*p.Name)
		if name != account.Name {
			taken, err := e.store.AccountNameTaken(ctx, userID, name)
			if err != nil {
				return nil, core.Internal(op, err)
			}
			if taken {
				return nil, core.Invalidf(op, "account name %q already in use", name)
			}
			account.Name = name
		}
	}
	if p.Type != nil {
		if !p.Type.Valid() {
			return nil, core.Invalidf(op, "account type must be one of: checking, savings, credit_card, investment, cash")
		}
		account.Type = *p.Type
	}

	if err := e.store.UpdateAccount(ctx, account); err != nil {
		if errors.Is(err, ErrStoreDuplicate) {
			return nil, core.Invalidf(op, "account name %q already in use", account.Name)
		}
		return nil, core.Internal(op, err)
	}
	return account, nil
}

// DeleteAccount soft-deletes the account: the row stays for the transactions
// that reference it, but the account disappears from listings and rejects
// new transactions.
func (e *Engine) DeleteAccount(ctx context.Context, userID, id int64) error {
	const op = "ledger.delete_account"

	if _, err := e.activeAccount(ctx, op, id, userID); err != nil {
		return err
	}
	if err := e.store.DeactivateAccount(ctx, id, userID); err != nil {
		return core.Internal(op, err)
	}

	e.logger.InfoContext(ctx, "Account deactivated",
		applog.FieldAccountID, id,
		applog.FieldUserID, userID)

	return nil
}
