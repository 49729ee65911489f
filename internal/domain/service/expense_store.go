package service

import (
	"context"

	"github.com/damon-houk/my-expenses/internal/domain/entity"
)

// ExpenseStore defines the interface for the remote per-user expense collection
type ExpenseStore interface {
	// FetchExpenses reads the whole collection of a user
	FetchExpenses(ctx context.Context, username string) ([]entity.Expense, error)

	// ReplaceExpenses overwrites the whole collection of a user
	ReplaceExpenses(ctx context.Context, username string, expenses []entity.Expense) error
}
