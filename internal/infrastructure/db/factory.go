package db

import (
	"fmt"
	"os"

	"github.com/damon-houk/my-expenses/internal/config"
	"github.com/damon-houk/my-expenses/internal/domain/repository"
	"github.com/damon-houk/my-expenses/internal/infrastructure/cache"
	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
)

// OpenRepository builds the configured backend behind a list cache. The
// returned close function releases the underlying database.
func OpenRepository(cfg config.StorageConfig, log logger.Logger) (repository.ExpenseRepository, func() error, error) {
	var (
		repo    repository.ExpenseRepository
		closeFn func() error
	)

	switch cfg.Backend {
	case config.BackendBadger:
		if err := os.MkdirAll(cfg.BadgerDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		badgerDB, err := OpenBadger(cfg.BadgerDir)
		if err != nil {
			return nil, nil, err
		}
		repo = NewBadgerExpenseRepository(badgerDB)
		closeFn = badgerDB.Close

	case config.BackendSQLite:
		sqliteRepo, err := NewSQLiteExpenseRepository(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		repo = sqliteRepo
		closeFn = sqliteRepo.Close

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	listCache := cache.NewExpenseListCache(cfg.CacheTTL)
	stopJanitor := listCache.StartJanitor(cfg.CacheTTL)

	log.Info("Expense repository opened", logger.Fields{
		"backend":   cfg.Backend,
		"cache_ttl": cfg.CacheTTL.String(),
	})

	closeAll := func() error {
		stopJanitor()
		return closeFn()
	}

	return cache.NewCachedExpenseRepository(repo, listCache), closeAll, nil
}
