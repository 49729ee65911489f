package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/damon-houk/my-expenses/internal/domain/entity"
	"github.com/damon-houk/my-expenses/internal/domain/repository"
	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
	"github.com/damon-houk/my-expenses/internal/infrastructure/middleware"
)

// ValidationError reports the first invalid entry of a submitted list
type ValidationError struct {
	Index int
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("expense %d: %v", e.Index, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ExpenseService handles the server side of the per-user expense collection
type ExpenseService struct {
	repo   repository.ExpenseRepository
	logger logger.Logger
}

// NewExpenseService creates a new expense service
func NewExpenseService(repo repository.ExpenseRepository, log logger.Logger) *ExpenseService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &ExpenseService{
		repo:   repo,
		logger: log,
	}
}

// ListExpenses returns the stored collection of a user
func (s *ExpenseService) ListExpenses(ctx context.Context, username string) ([]entity.Expense, error) {
	if strings.TrimSpace(username) == "" {
		return nil, entity.ErrUsernameMissing
	}

	expenses, err := s.repo.FindAll(ctx, username)
	if err != nil {
		s.logger.Error("Failed to load expenses", logger.Fields{
			"request_id": middleware.GetRequestID(ctx),
			"username":   username,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	if expenses == nil {
		expenses = []entity.Expense{}
	}
	return expenses, nil
}

// ReplaceExpenses validates every entry and overwrites the collection of a user
func (s *ExpenseService) ReplaceExpenses(ctx context.Context, username string, expenses []entity.Expense) error {
	requestID := middleware.GetRequestID(ctx)

	if strings.TrimSpace(username) == "" {
		return entity.ErrUsernameMissing
	}

	for i := range expenses {
		if err := expenses[i].Validate(); err != nil {
			s.logger.Warn("Rejected expense list", logger.Fields{
				"request_id": requestID,
				"username":   username,
				"index":      i,
				"error":      err.Error(),
			})
			return &ValidationError{Index: i, Err: err}
		}
	}

	if expenses == nil {
		expenses = []entity.Expense{}
	}

	if err := s.repo.ReplaceAll(ctx, username, expenses); err != nil {
		s.logger.Error("Failed to store expenses", logger.Fields{
			"request_id": requestID,
			"username":   username,
			"error":      err.Error(),
		})
		return fmt.Errorf("failed to store expenses: %w", err)
	}

	s.logger.Info("Expenses replaced", logger.Fields{
		"request_id": requestID,
		"username":   username,
		"count":      len(expenses),
	})
	return nil
}
