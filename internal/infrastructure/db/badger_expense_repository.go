package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/damon-houk/my-expenses/internal/domain/entity"
	"github.com/dgraph-io/badger/v3"
)

const expenseKeyPrefix = "expenses:"

// BadgerExpenseRepository implements the expense repository interface using BadgerDB
type BadgerExpenseRepository struct {
	db *badger.DB
}

// NewBadgerExpenseRepository creates a new BadgerDB expense repository
func NewBadgerExpenseRepository(db *badger.DB) *BadgerExpenseRepository {
	return &BadgerExpenseRepository{db: db}
}

// OpenBadger opens (creating if needed) a BadgerDB in dir with Badger's own logging off
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return db, nil
}

func expenseKey(username string) []byte {
	return []byte(expenseKeyPrefix + username)
}

// FindAll returns the stored list of a user, empty when nothing is stored
func (r *BadgerExpenseRepository) FindAll(ctx context.Context, username string) ([]entity.Expense, error) {
	expenses := []entity.Expense{}

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(expenseKey(username))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &expenses)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return []entity.Expense{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to retrieve expenses for %s: %w", username, err)
	}

	return expenses, nil
}

// ReplaceAll overwrites the stored list of a user
func (r *BadgerExpenseRepository) ReplaceAll(ctx context.Context, username string, expenses []entity.Expense) error {
	if expenses == nil {
		expenses = []entity.Expense{}
	}

	data, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Errorf("failed to marshal expenses: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(expenseKey(username), data)
	})

	if err != nil {
		return fmt.Errorf("failed to store expenses for %s: %w", username, err)
	}

	return nil
}
