package repository

import (
	"context"

	"github.com/damon-houk/my-expenses/internal/domain/entity"
)

// ExpenseRepository defines the interface for server-side expense list storage
type ExpenseRepository interface {
	// FindAll returns the stored list of a user, empty when nothing is stored
	FindAll(ctx context.Context, username string) ([]entity.Expense, error)

	// ReplaceAll overwrites the stored list of a user
	ReplaceAll(ctx context.Context, username string, expenses []entity.Expense) error
}
