package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *SQLiteRepository, username string) string {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), username, "hash")
	require.NoError(t, err)
	return u.ID
}

func seedTx(t *testing.T, repo *SQLiteRepository, owner, date, typ, amount, category string) core.Transaction {
	t.Helper()
	ctx := context.Background()
	cat, err := repo.UpsertCategory(ctx, owner, category, core.TxType(typ))
	require.NoError(t, err)
	saved, err := repo.InsertTransaction(ctx, owner, core.Transaction{
		Date:        date,
		Description: "test",
		Amount:      decimal.RequireFromString(amount),
		Type:        core.TxType(typ),
		Category:    category,
	}, cat.ID)
	require.NoError(t, err)
	return saved
}

func TestSQLiteUserLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	u, err := repo.CreateUser(ctx, "ana", "hash")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	_, err = repo.CreateUser(ctx, "ana", "otherhash")
	require.ErrorIs(t, err, ErrUsernameTaken)

	got, err := repo.GetUserByUsername(ctx, "ana")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "hash", got.PasswordHash)

	_, err = repo.GetUserByUsername(ctx, "nadie")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteUpsertCategoryGetOrCreate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	owner := seedUser(t, repo, "ana")

	first, err := repo.UpsertCategory(ctx, owner, "Comida", core.Expense)
	require.NoError(t, err)
	second, err := repo.UpsertCategory(ctx, owner, "Comida", core.Expense)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	other, err := repo.UpsertCategory(ctx, owner, "Comida", core.Income)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID)

	cats, err := repo.ListCategories(ctx, owner, core.Expense)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.Equal(t, "Comida", cats[0].Name)
}

func TestSQLiteTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	owner := seedUser(t, repo, "ana")

	cat, err := repo.UpsertCategory(ctx, owner, "Vivienda", core.Expense)
	require.NoError(t, err)
	saved, err := repo.InsertTransaction(ctx, owner, core.Transaction{
		Date:        "2024-12-05",
		Description: "Alquiler",
		Amount:      decimal.RequireFromString("1200.50"),
		Type:        core.Expense,
		Category:    "Vivienda",
		PaymentType: core.PaymentBank,
		Bank:        "BBVA",
	}, cat.ID)
	require.NoError(t, err)

	got, err := repo.GetTransaction(ctx, owner, saved.ID)
	require.NoError(t, err)
	require.Equal(t, "2024-12-05", got.Date)
	require.Equal(t, "Vivienda", got.Category)
	require.Equal(t, core.PaymentBank, got.PaymentType)
	require.Equal(t, "BBVA", got.Bank)
	require.True(t, got.Amount.Equal(decimal.RequireFromString("1200.50")))
}

func TestSQLiteOwnerScoping(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ana := seedUser(t, repo, "ana")
	luis := seedUser(t, repo, "luis")

	saved := seedTx(t, repo, ana, "2024-12-05", "expense", "120", "Comida")

	_, err := repo.GetTransaction(ctx, luis, saved.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, repo.DeleteTransaction(ctx, luis, saved.ID), ErrNotFound)

	desc := "ajena"
	_, err = repo.UpdateTransaction(ctx, luis, saved.ID, TxUpdate{Description: &desc})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.DeleteTransaction(ctx, ana, saved.ID))
	_, err = repo.GetTransaction(ctx, ana, saved.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteListTransactionsRange(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	owner := seedUser(t, repo, "ana")

	for _, date := range []string{"2024-11-30", "2024-12-01", "2024-12-20", "2025-01-03"} {
		seedTx(t, repo, owner, date, "expense", "10", "Comida")
	}

	got, err := repo.ListTransactions(ctx, owner, TxFilter{From: "2024-12-01", To: "2025-01-01"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "2024-12-20", got[0].Date)
	require.Equal(t, "2024-12-01", got[1].Date)

	typed, err := repo.ListTransactions(ctx, owner, TxFilter{Type: core.Income})
	require.NoError(t, err)
	require.Empty(t, typed)
}

func TestSQLitePartialUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	owner := seedUser(t, repo, "ana")

	saved := seedTx(t, repo, owner, "2024-12-05", "expense", "120", "Comida")

	amount := decimal.RequireFromString("99.90")
	got, err := repo.UpdateTransaction(ctx, owner, saved.ID, TxUpdate{Amount: &amount})
	require.NoError(t, err)
	require.True(t, got.Amount.Equal(amount))
	require.Equal(t, "2024-12-05", got.Date) // untouched fields survive
	require.Equal(t, "Comida", got.Category)
}

func TestSQLiteExportQueue(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	owner := seedUser(t, repo, "ana")

	saved := seedTx(t, repo, owner, "2024-12-05", "expense", "120", "Comida")

	pending, err := repo.ListPendingExport(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, saved.ID, pending[0].ID)
	require.Equal(t, owner, pending[0].Owner)

	require.NoError(t, repo.MarkExported(ctx, saved.ID))
	pending, err = repo.ListPendingExport(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)

	// An edit re-enters the queue.
	desc := "editada"
	_, err = repo.UpdateTransaction(ctx, owner, saved.ID, TxUpdate{Description: &desc})
	require.NoError(t, err)
	pending, err = repo.ListPendingExport(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, repo.MarkExportError(ctx, saved.ID))
	pending, err = repo.ListPendingExport(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}
