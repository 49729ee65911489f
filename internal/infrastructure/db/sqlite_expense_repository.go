package db

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/damon-houk/my-expenses/internal/domain/entity"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteExpenseRepository stores each user's list as one JSON row
type SQLiteExpenseRepository struct {
	db *sql.DB
}

// NewSQLiteExpenseRepository opens the database at dbPath and migrates it
func NewSQLiteExpenseRepository(dbPath string) (*SQLiteExpenseRepository, error) {
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

	return &SQLiteExpenseRepository{db: db}, nil
}

// RunMigrations applies the embedded schema migrations on a separate connection
func RunMigrations(dbPath string) error {
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close releases the database handle
func (r *SQLiteExpenseRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// FindAll returns the stored list of a user, empty when nothing is stored
func (r *SQLiteExpenseRepository) FindAll(ctx context.Context, username string) ([]entity.Expense, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM expense_lists WHERE username = ?`, username).Scan(&payload)

	if errors.Is(err, sql.ErrNoRows) {
		return []entity.Expense{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query expenses for %s: %w", username, err)
	}

	expenses := []entity.Expense{}
	if err := json.Unmarshal([]byte(payload), &expenses); err != nil {
		return nil, fmt.Errorf("decode expenses for %s: %w", username, err)
	}
	return expenses, nil
}

// ReplaceAll overwrites the stored list of a user
func (r *SQLiteExpenseRepository) ReplaceAll(ctx context.Context, username string, expenses []entity.Expense) error {
	if expenses == nil {
		expenses = []entity.Expense{}
	}

	payload, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO expense_lists (username, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		username, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store expenses for %s: %w", username, err)
	}

	return nil
}
