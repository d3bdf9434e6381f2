// Package storage implements the ledger's persistence ports on SQLite.
// Monetary values are stored as fixed-point decimal strings so that
// balances and amounts survive round trips without binary-float drift.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn inside a transaction, committing on nil and rolling back
// on error.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// applyDelta adjusts one account balance by reading the current value and
// writing the sum inside the caller's transaction.
func applyDelta(ctx context.Context, tx *sql.Tx, d ledger.BalanceDelta) error {
	var raw string
	err := tx.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE id = ?`, d.AccountID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrStoreNotFound
	}
	if err != nil {
		return fmt.Errorf("read balance for account %d: %w", d.AccountID, err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("corrupt balance for account %d: %w", d.AccountID, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		balance.Add(d.Delta).StringFixed(2), d.AccountID)
	if err != nil {
		return fmt.Errorf("write balance for account %d: %w", d.AccountID, err)
	}
	return nil
}

// Users

func (r *SQLiteRepository) CreateUser(ctx context.Context, u *core.User) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)`,
		u.Email, u.PasswordHash, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user insert id: %w", err)
	}
	u.ID = id
	u.CreatedAt = now
	return nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (*core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`,
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user by email: %w", err)
	}
	return &u, nil
}

func (r *SQLiteRepository) User(ctx context.Context, id int64) (*core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = ?`,
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// Accounts

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a *core.Account) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, type, balance, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Name, string(a.Type), a.Balance.StringFixed(2), a.IsActive, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("account insert id: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

const accountColumns = `id, user_id, name, type, balance, is_active, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*core.Account, error) {
	var (
		a       core.Account
		typ     string
		balance string
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &typ, &balance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Type = core.AccountType(typ)
	a.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance for account %d: %w", a.ID, err)
	}
	return &a, nil
}

func (r *SQLiteRepository) Account(ctx context.Context, id, userID int64) (*core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) Accounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? AND is_active = 1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a *core.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, type = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		a.Name, string(a.Type), a.ID, a.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeactivateAccount(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET is_active = 0, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) AccountNameTaken(ctx context.Context, userID int64, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE user_id = ? AND name = ?`, userID, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count account name: %w", err)
	}
	return n > 0, nil
}

// Transactions

const transactionColumns = `id, user_id, account_id, amount, description, category, type,
	notes, reference, transfer_account_id, transfer_group_id, date, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (*core.Transaction, error) {
	var (
		t        core.Transaction
		amount   string
		category string
		typ      string
		transfer sql.NullInt64
		group    sql.NullString
	)
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &amount, &t.Description, &category, &typ,
		&t.Notes, &t.Reference, &transfer, &group, &t.Date, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount for transaction %d: %w", t.ID, err)
	}
	t.Category = core.Category(category)
	t.Type = core.TransactionType(typ)
	t.TransferAccountID = transfer.Int64
	t.TransferGroupID = group.String
	return &t, nil
}

func (r *SQLiteRepository) Transaction(ctx context.Context, id, userID int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) TransactionsByGroup(ctx context.Context, groupID string, userID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE transfer_group_id = ? AND user_id = ? ORDER BY id`, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("select transfer group: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) Transactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error) {
	var (
		conds = []string{"user_id = ?"}
		args  = []any{filter.UserID}
	)
	if filter.AccountID != 0 {
		conds = append(conds, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if !filter.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, filter.To)
	}
	if filter.OnlyUncategorized {
		conds = append(conds, "type != 'transfer' AND (category = '' OR category = 'other')")
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY date DESC, id DESC`
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// UncategorizedTransactions returns transactions across all users whose
// category is still empty or the catch-all, oldest first, for the backfill
// sweep.
func (r *SQLiteRepository) UncategorizedTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE type != 'transfer' AND (category = '' OR category = 'other')
		 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select uncategorized transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateTransactions(ctx context.Context, txns []*core.Transaction, deltas []ledger.BalanceDelta) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		for _, t := range txns {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO transactions (user_id, account_id, amount, description, category, type,
				 notes, reference, transfer_account_id, transfer_group_id, date, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.UserID, t.AccountID, t.Amount.StringFixed(2), t.Description, string(t.Category),
				string(t.Type), t.Notes, t.Reference,
				nullInt64(t.TransferAccountID), nullString(t.TransferGroupID), t.Date, now, now)
			if err != nil {
				return fmt.Errorf("insert transaction: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("transaction insert id: %w", err)
			}
			t.ID = id
			t.CreatedAt = now
			t.UpdatedAt = now
		}
		for _, d := range deltas {
			if err := applyDelta(ctx, tx, d); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, txn *core.Transaction, delta *ledger.BalanceDelta) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE transactions SET amount = ?, description = ?, category = ?, notes = ?,
			 reference = ?, date = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND user_id = ?`,
			txn.Amount.StringFixed(2), txn.Description, string(txn.Category), txn.Notes,
			txn.Reference, txn.Date, txn.ID, txn.UserID)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
		if delta != nil {
			return applyDelta(ctx, tx, *delta)
		}
		return nil
	})
}

func (r *SQLiteRepository) DeleteTransactions(ctx context.Context, userID int64, ids []int64, deltas []ledger.BalanceDelta) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			res, err := tx.ExecContext(ctx,
				`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
			if err != nil {
				return fmt.Errorf("delete transaction %d: %w", id, err)
			}
			if err := requireRow(res); err != nil {
				return err
			}
		}
		for _, d := range deltas {
			if err := applyDelta(ctx, tx, d); err != nil {
				return err
			}
		}
		return nil
	})
}

// ErrDuplicate is returned when an insert or update hits a uniqueness
// constraint (account name per owner, user email). It is the ledger's
// sentinel so the engine can map account-name races without importing
// this package.
var ErrDuplicate = ledger.ErrStoreDuplicate

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrStoreNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
