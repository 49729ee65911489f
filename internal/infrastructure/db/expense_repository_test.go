package db

import (
	"context"
	"testing"

	"github.com/damon-houk/my-expenses/internal/domain/entity"
	"github.com/damon-houk/my-expenses/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleExpenses() []entity.Expense {
	return []entity.Expense{
		{Name: "Coffee", Amount: 4.5, Type: entity.TypeDebit, ShortNote: "morning", TransactionDate: "2024-01-01"},
		{Name: "Salary", Amount: 1000, Type: entity.TypeCredit, ShortNote: "january", TransactionDate: "2024-01-31"},
	}
}

// exerciseRepository runs the behavior every backend must share
func exerciseRepository(t *testing.T, repo repository.ExpenseRepository) {
	ctx := context.Background()

	t.Run("Unknown user has an empty list", func(t *testing.T) {
		expenses, err := repo.FindAll(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, expenses)
		assert.Empty(t, expenses)
	})

	t.Run("Replace then find keeps order", func(t *testing.T) {
		require.NoError(t, repo.ReplaceAll(ctx, "alice", sampleExpenses()))

		expenses, err := repo.FindAll(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, sampleExpenses(), expenses)
	})

	t.Run("Replace overwrites the whole list", func(t *testing.T) {
		require.NoError(t, repo.ReplaceAll(ctx, "alice", sampleExpenses()[1:]))

		expenses, err := repo.FindAll(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, sampleExpenses()[1:], expenses)
	})

	t.Run("Users are isolated", func(t *testing.T) {
		require.NoError(t, repo.ReplaceAll(ctx, "bob", sampleExpenses()[:1]))

		alice, err := repo.FindAll(ctx, "alice")
		require.NoError(t, err)
		bob, err := repo.FindAll(ctx, "bob")
		require.NoError(t, err)

		assert.Len(t, alice, 1)
		assert.Equal(t, "Salary", alice[0].Name)
		assert.Len(t, bob, 1)
		assert.Equal(t, "Coffee", bob[0].Name)
	})

	t.Run("Empty list is stored as empty", func(t *testing.T) {
		require.NoError(t, repo.ReplaceAll(ctx, "bob", nil))

		expenses, err := repo.FindAll(ctx, "bob")
		require.NoError(t, err)
		assert.NotNil(t, expenses)
		assert.Empty(t, expenses)
	})
}

func TestBadgerExpenseRepository(t *testing.T) {
	badgerDB, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	defer badgerDB.Close()

	exerciseRepository(t, NewBadgerExpenseRepository(badgerDB))
}

func TestSQLiteExpenseRepository(t *testing.T) {
	dbPath := t.TempDir() + "/nested/expenses.db"

	repo, err := NewSQLiteExpenseRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()

	exerciseRepository(t, repo)

	// Reopening runs migrations again without error and keeps data
	reopened, err := NewSQLiteExpenseRepository(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	expenses, err := reopened.FindAll(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, expenses, 1)
}
