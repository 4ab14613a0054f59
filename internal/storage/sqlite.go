package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"finanzas/internal/core"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

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

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// Run migrations
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

func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUsernameTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID, "username", u.Username)
	return u, nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var (
		u         User
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`,
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return u, nil
}

// UpsertCategory implements get-or-create on (owner, name, type). The no-op
// update makes the conflict path return the existing row, so concurrent
// creates converge on one id.
func (r *SQLiteRepository) UpsertCategory(ctx context.Context, owner, name string, typ core.TxType) (core.Category, error) {
	cat := core.Category{Name: name, Type: typ}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (id, user_id, name, type)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, name, type) DO UPDATE SET name = excluded.name
		 RETURNING id`,
		uuid.NewString(), owner, name, string(typ)).Scan(&cat.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("upsert category: %w", err)
	}
	return cat, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, owner string, typ core.TxType) ([]core.Category, error) {
	query := `SELECT id, name, type FROM categories WHERE user_id = ?`
	args := []any{owner}
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var t string
		if err := rows.Scan(&c.ID, &c.Name, &t); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TxType(t)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, owner string, t core.Transaction, categoryID string) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	bank := sql.NullString{String: t.Bank, Valid: t.Bank != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, date, description, amount, type, category_id, payment_type, bank, exported, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		t.ID, owner, t.Date, t.Description, t.Amount.String(), string(t.Type),
		categoryID, string(t.Payment()), bank, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"owner", owner,
		"type", string(t.Type),
		"amount", t.Amount.String())
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, owner, id string, upd TxUpdate) (core.Transaction, error) {
	var (
		sets []string
		args []any
	)
	if upd.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, *upd.Date)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, upd.Amount.String())
	}
	if upd.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, string(*upd.Type))
	}
	if upd.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *upd.CategoryID)
	}
	if upd.PaymentType != nil {
		sets = append(sets, "payment_type = ?")
		args = append(args, string(*upd.PaymentType))
	}
	if upd.Bank != nil {
		sets = append(sets, "bank = ?")
		args = append(args, sql.NullString{String: *upd.Bank, Valid: *upd.Bank != ""})
	}
	if len(sets) == 0 {
		return r.GetTransaction(ctx, owner, id)
	}
	// Edits re-enter the export queue.
	sets = append(sets, "exported = 0")

	args = append(args, id, owner)
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
		args...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.Transaction{}, ErrNotFound
	}
	return r.GetTransaction(ctx, owner, id)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id, "owner", owner)
	return nil
}

const txColumns = `t.id, t.date, t.description, t.amount, t.type, c.name, t.payment_type, t.bank`

func (r *SQLiteRepository) GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+`
		 FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 WHERE t.id = ? AND t.user_id = ?`, id, owner)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, owner string, f TxFilter) ([]core.Transaction, error) {
	query := `SELECT ` + txColumns + `
		 FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = ?`
	args := []any{owner}
	if f.From != "" {
		query += ` AND t.date >= ?`
		args = append(args, f.From)
	}
	if f.To != "" {
		query += ` AND t.date < ?`
		args = append(args, f.To)
	}
	if f.Type != "" {
		query += ` AND t.type = ?`
		args = append(args, string(f.Type))
	}
	query += ` ORDER BY t.date DESC, t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListPendingExport(ctx context.Context, limit int) ([]PendingExport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, created_at FROM transactions
		 WHERE exported = 0
		 ORDER BY created_at ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending export: %w", err)
	}
	defer rows.Close()

	var out []PendingExport
	for rows.Next() {
		var (
			p         PendingExport
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Owner, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET exported = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "transaction_id", id)
	return nil
}

func (r *SQLiteRepository) MarkExportError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET exported = -1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "transaction_id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTransaction normalizes a joined row into a core.Transaction. The
// category join always yields exactly one name string; the core never has to
// deal with the shape of the join result.
func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t           core.Transaction
		amount      string
		typ         string
		paymentType string
		bank        sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Date, &t.Description, &amount, &typ, &t.Category, &paymentType, &bank); err != nil {
		return core.Transaction{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	t.Amount = d
	t.Type = core.TxType(typ)
	t.PaymentType = core.PaymentType(paymentType)
	t.Bank = bank.String
	return t, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
