package ledger

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestCreateAccount(t *testing.T) {
	tests := []struct {
		name        string
		params      CreateAccountParams
		wantErr     bool
		wantBalance string
	}{
		{
			name:        "valid checking account",
			params:      CreateAccountParams{Name: "Main Checking", Type: core.Checking, Balance: d("1000")},
			wantBalance: "1000.00",
		},
		{
			name:        "opening balance rounded to cents",
			params:      CreateAccountParams{Name: "Rounded", Type: core.Savings, Balance: d("10.005")},
			wantBalance: "10.00",
		},
		{
			name:        "credit card may open negative",
			params:      CreateAccountParams{Name: "Visa", Type: core.CreditCard, Balance: d("-250.75")},
			wantBalance: "-250.75",
		},
		{
			name:    "empty name",
			params:  CreateAccountParams{Name: "   ", Type: core.Checking, Balance: decimal.Zero},
			wantErr: true,
		},
		{
			name:    "name too long",
			params:  CreateAccountParams{Name: strings.Repeat("x", 101), Type: core.Checking, Balance: decimal.Zero},
			wantErr: true,
		},
		{
			name:    "unknown account type",
			params:  CreateAccountParams{Name: "Weird", Type: "crypto", Balance: decimal.Zero},
			wantErr: true,
		},
		{
			name:    "balance below lower bound",
			params:  CreateAccountParams{Name: "Deep Red", Type: core.Checking, Balance: d("-1000000")},
			wantErr: true,
		},
		{
			name:    "balance above upper bound",
			params:  CreateAccountParams{Name: "Too Rich", Type: core.Checking, Balance: d("1000000000")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			engine, _ := newTestEngine(store)

			account, err := engine.CreateAccount(context.Background(), 1, tt.params)
			if tt.wantErr {
				if !core.IsValidation(err) {
					t.Fatalf("error = %v, want validation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateAccount: %v", err)
			}
			if account.ID == 0 {
				t.Error("account id not assigned")
			}
			if !account.IsActive {
				t.Error("new account not active")
			}
			if got := account.Balance.StringFixed(2); got != tt.wantBalance {
				t.Errorf("balance = %s, want %s", got, tt.wantBalance)
			}
		})
	}
}

func TestCreateAccount_NameTrimmedAndUniquePerOwner(t *testing.T) {
	store := newMemStore()
	engine, _ := newTestEngine(store)
	ctx := context.Background()

	account, err := engine.CreateAccount(ctx, 1, CreateAccountParams{Name: "  Main  ", Type: core.Checking, Balance: decimal.Zero})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if account.Name != "Main" {
		t.Errorf("name = %q, want trimmed %q", account.Name, "Main")
	}

	if _, err := engine.CreateAccount(ctx, 1, CreateAccountParams{Name: "Main", Type: core.Savings, Balance: decimal.Zero}); !core.IsValidation(err) {
		t.Errorf("duplicate name error = %v, want validation", err)
	}

	// Same name for another owner is fine.
	if _, err := engine.CreateAccount(ctx, 2, CreateAccountParams{Name: "Main", Type: core.Checking, Balance: decimal.Zero}); err != nil {
		t.Errorf("same name, different owner: %v", err)
	}
}

func TestCreateAccount_DuplicateRacePastPrecheck(t *testing.T) {
	store := newMemStore()
	engine, _ := newTestEngine(store)
	ctx := context.Background()

	// A concurrent writer takes the name between the pre-check and the
	// insert; the store then rejects on the unique index.
	store.dupWrites = true
	if _, err := engine.CreateAccount(ctx, 1, CreateAccountParams{Name: "Main", Type: core.Checking, Balance: decimal.Zero}); !core.IsValidation(err) {
		t.Errorf("raced duplicate error = %v, want validation", err)
	}

	store.dupWrites = false
	account, err := engine.CreateAccount(ctx, 1, CreateAccountParams{Name: "Main", Type: core.Checking, Balance: decimal.Zero})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	store.dupWrites = true
	name := "Other"
	if _, err := engine.UpdateAccount(ctx, 1, account.ID, UpdateAccountParams{Name: &name}); !core.IsValidation(err) {
		t.Errorf("raced rename error = %v, want validation", err)
	}
}

func TestAccount_OwnershipAndActivity(t *testing.T) {
	store := newMemStore()
	mine := store.addAccount(1, "Mine", "10.00")
	closed := store.addAccount(1, "Closed", "0.00")
	closed.IsActive = false
	store.addAccount(2, "Theirs", "10.00")
	engine, _ := newTestEngine(store)
	ctx := context.Background()

	if got, err := engine.Account(ctx, 1, mine.ID); err != nil || got.Name != "Mine" {
		t.Errorf("Account = %+v, %v", got, err)
	}
	if _, err := engine.Account(ctx, 1, closed.ID); !core.IsNotFound(err) {
		t.Errorf("inactive account error = %v, want not found", err)
	}
	if _, err := engine.Account(ctx, 2, mine.ID); !core.IsNotFound(err) {
		t.Errorf("cross-owner error = %v, want not found", err)
	}

	accounts, err := engine.Accounts(ctx, 1)
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Name != "Mine" {
		t.Errorf("Accounts = %+v, want only Mine", accounts)
	}
}

func TestUpdateAccount(t *testing.T) {
	store := newMemStore()
	account := store.addAccount(1, "Old Name", "500.00")
	store.addAccount(1, "Taken", "0.00")
	engine, _ := newTestEngine(store)
	ctx := context.Background()

	t.Run("rename and retype", func(t *testing.T) {
		name := "New Name"
		typ := core.Savings
		updated, err := engine.UpdateAccount(ctx, 1, account.ID, UpdateAccountParams{Name: &name, Type: &typ})
		if err != nil {
			t.Fatalf("UpdateAccount: %v", err)
		}
		if updated.Name != name || updated.Type != core.Savings {
			t.Errorf("updated = %+v", updated)
		}
		if got := store.balance(account.ID); got != "500.00" {
			t.Errorf("balance = %s, want 500.00 (untouched by metadata update)", got)
		}
	})

	t.Run("rename to taken name", func(t *testing.T) {
		name := "Taken"
		if _, err := engine.UpdateAccount(ctx, 1, account.ID, UpdateAccountParams{Name: &name}); !core.IsValidation(err) {
			t.Errorf("error = %v, want validation", err)
		}
	})

	t.Run("same name no-op allowed", func(t *testing.T) {
		name := "New Name"
		if _, err := engine.UpdateAccount(ctx, 1, account.ID, UpdateAccountParams{Name: &name}); err != nil {
			t.Errorf("renaming to current name: %v", err)
		}
	})

	t.Run("invalid type", func(t *testing.T) {
		typ := core.AccountType("crypto")
		if _, err := engine.UpdateAccount(ctx, 1, account.ID, UpdateAccountParams{Type: &typ}); !core.IsValidation(err) {
			t.Errorf("error = %v, want validation", err)
		}
	})

	t.Run("not found for other owner", func(t *testing.T) {
		name := "Hijack"
		if _, err := engine.UpdateAccount(ctx, 2, account.ID, UpdateAccountParams{Name: &name}); !core.IsNotFound(err) {
			t.Errorf("error = %v, want not found", err)
		}
	})
}

func TestDeleteAccount_SoftDelete(t *testing.T) {
	store := newMemStore()
	account := store.addAccount(1, "Main", "100.00")
	engine, _ := newTestEngine(store)
	ctx := context.Background()

	txn, err := engine.CreateTransaction(ctx, 1, CreateTransactionParams{
		AccountID: account.ID, Type: core.Expense, Amount: d("-20"), Description: "before close", Category: "other",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if err := engine.DeleteAccount(ctx, 1, account.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	if _, err := engine.Account(ctx, 1, account.ID); !core.IsNotFound(err) {
		t.Errorf("deactivated account still visible: %v", err)
	}
	accounts, _ := engine.Accounts(ctx, 1)
	if len(accounts) != 0 {
		t.Errorf("listing shows %d accounts after deactivation", len(accounts))
	}

	// History survives the deactivation.
	if got, err := engine.Transaction(ctx, 1, txn.ID); err != nil || got.Description != "before close" {
		t.Errorf("transaction after deactivation = %+v, %v", got, err)
	}

	// New activity on the closed account is rejected.
	if _, err := engine.CreateTransaction(ctx, 1, CreateTransactionParams{
		AccountID: account.ID, Type: core.Expense, Amount: d("-5"), Description: "after close", Category: "other",
	}); !core.IsNotFound(err) {
		t.Errorf("create on closed account error = %v, want not found", err)
	}

	t.Run("double delete", func(t *testing.T) {
		if err := engine.DeleteAccount(ctx, 1, account.ID); !core.IsNotFound(err) {
			t.Errorf("second delete error = %v, want not found", err)
		}
	})
}
