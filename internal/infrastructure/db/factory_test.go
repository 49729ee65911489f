package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/damon-houk/my-expenses/internal/config"
	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRepository(t *testing.T) {
	dir := t.TempDir()

	for _, cfg := range []config.StorageConfig{
		{Backend: config.BackendBadger, BadgerDir: filepath.Join(dir, "badger"), CacheTTL: time.Minute},
		{Backend: config.BackendSQLite, SQLitePath: filepath.Join(dir, "sqlite", "expenses.db")},
	} {
		t.Run(cfg.Backend, func(t *testing.T) {
			repo, closeFn, err := OpenRepository(cfg, logger.Discard())
			require.NoError(t, err)
			defer closeFn()

			ctx := context.Background()
			require.NoError(t, repo.ReplaceAll(ctx, "alice", sampleExpenses()))

			expenses, err := repo.FindAll(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, sampleExpenses(), expenses)
		})
	}

	_, _, err := OpenRepository(config.StorageConfig{Backend: "postgres"}, logger.Discard())
	assert.Error(t, err)
}
