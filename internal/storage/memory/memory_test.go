package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

func newTx(date, typ, amount, category string) core.Transaction {
	return core.Transaction{
		Date:        date,
		Description: "test",
		Amount:      decimal.RequireFromString(amount),
		Type:        core.TxType(typ),
		Category:    category,
		PaymentType: core.PaymentCash,
	}
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	u, err := s.CreateUser(ctx, "ana", "hash")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	_, err = s.CreateUser(ctx, "ana", "otherhash")
	require.ErrorIs(t, err, storage.ErrUsernameTaken)

	got, err := s.GetUserByUsername(ctx, "ana")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = s.GetUserByUsername(ctx, "nadie")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpsertCategoryGetOrCreate(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, err := s.UpsertCategory(ctx, "ana", "Comida", core.Expense)
	require.NoError(t, err)
	second, err := s.UpsertCategory(ctx, "ana", "Comida", core.Expense)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	// same name under a different type or owner is a different category
	other, err := s.UpsertCategory(ctx, "ana", "Comida", core.Income)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID)

	foreign, err := s.UpsertCategory(ctx, "luis", "Comida", core.Expense)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, foreign.ID)
}

func TestListCategoriesFiltersByType(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.UpsertCategory(ctx, "ana", "Comida", core.Expense)
	require.NoError(t, err)
	_, err = s.UpsertCategory(ctx, "ana", "Salario", core.Income)
	require.NoError(t, err)

	all, err := s.ListCategories(ctx, "ana", "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	expenses, err := s.ListCategories(ctx, "ana", core.Expense)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	require.Equal(t, "Comida", expenses[0].Name)
}

func TestTransactionOwnerScoping(t *testing.T) {
	ctx := context.Background()
	s := New()

	cat, err := s.UpsertCategory(ctx, "ana", "Comida", core.Expense)
	require.NoError(t, err)
	saved, err := s.InsertTransaction(ctx, "ana", newTx("2024-12-05", "expense", "120", "Comida"), cat.ID)
	require.NoError(t, err)

	_, err = s.GetTransaction(ctx, "luis", saved.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = s.DeleteTransaction(ctx, "luis", saved.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.UpdateTransaction(ctx, "luis", saved.ID, storage.TxUpdate{})
	require.ErrorIs(t, err, storage.ErrNotFound)

	got, err := s.GetTransaction(ctx, "ana", saved.ID)
	require.NoError(t, err)
	require.Equal(t, "Comida", got.Category)
}

func TestListTransactionsRangeAndOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	cat, err := s.UpsertCategory(ctx, "ana", "Comida", core.Expense)
	require.NoError(t, err)
	for _, date := range []string{"2024-12-01", "2024-12-20", "2025-01-03", "2024-11-30"} {
		_, err = s.InsertTransaction(ctx, "ana", newTx(date, "expense", "10", "Comida"), cat.ID)
		require.NoError(t, err)
	}

	got, err := s.ListTransactions(ctx, "ana", storage.TxFilter{From: "2024-12-01", To: "2025-01-01"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "2024-12-20", got[0].Date)
	require.Equal(t, "2024-12-01", got[1].Date)
}

func TestUpdateRequeuesExport(t *testing.T) {
	ctx := context.Background()
	s := New()

	cat, err := s.UpsertCategory(ctx, "ana", "Comida", core.Expense)
	require.NoError(t, err)
	saved, err := s.InsertTransaction(ctx, "ana", newTx("2024-12-05", "expense", "120", "Comida"), cat.ID)
	require.NoError(t, err)

	require.NoError(t, s.MarkExported(ctx, saved.ID))
	pending, err := s.ListPendingExport(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)

	desc := "editada"
	_, err = s.UpdateTransaction(ctx, "ana", saved.ID, storage.TxUpdate{Description: &desc})
	require.NoError(t, err)

	pending, err = s.ListPendingExport(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, saved.ID, pending[0].ID)
}

func TestMarkExportError(t *testing.T) {
	ctx := context.Background()
	s := New()

	cat, err := s.UpsertCategory(ctx, "ana", "Comida", core.Expense)
	require.NoError(t, err)
	saved, err := s.InsertTransaction(ctx, "ana", newTx("2024-12-05", "expense", "120", "Comida"), cat.ID)
	require.NoError(t, err)

	require.NoError(t, s.MarkExportError(ctx, saved.ID))
	pending, err := s.ListPendingExport(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)

	require.ErrorIs(t, s.MarkExported(ctx, "missing"), storage.ErrNotFound)
}
