package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/damon-houk/my-expenses/internal/domain/entity"
	"github.com/damon-houk/my-expenses/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coffeeList() []entity.Expense {
	return []entity.Expense{
		{Name: "Coffee", Amount: 4.5, Type: entity.TypeDebit, ShortNote: "morning", TransactionDate: "2024-01-01"},
	}
}

func TestExpenseListCache(t *testing.T) {
	cache := NewExpenseListCache(time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	assert.Equal(t, 0, cache.Size())

	cache.Put("alice", coffeeList())
	assert.Equal(t, 1, cache.Size())

	got, ok := cache.Get("alice")
	assert.True(t, ok)
	assert.Equal(t, coffeeList(), got)

	// Callers get their own copy
	got[0].Name = "Tea"
	again, _ := cache.Get("alice")
	assert.Equal(t, "Coffee", again[0].Name)

	_, ok = cache.Get("bob")
	assert.False(t, ok)

	// Expiration
	now = now.Add(2 * time.Hour)
	_, ok = cache.Get("alice")
	assert.False(t, ok)

	assert.Equal(t, 1, cache.CleanExpired())
	assert.Equal(t, 0, cache.Size())

	cache.Put("alice", coffeeList())
	cache.Put("bob", nil)
	cache.Invalidate("alice")
	assert.Equal(t, 1, cache.Size())

	empty, ok := cache.Get("bob")
	assert.True(t, ok)
	assert.Empty(t, empty)

	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestNewExpenseListCacheDefaultExpiration(t *testing.T) {
	assert.Equal(t, DefaultExpiration, NewExpenseListCache(0).expiration)
}

func TestCachedExpenseRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Reads are served from cache after the first load", func(t *testing.T) {
		next := new(mocks.MockExpenseRepository)
		repo := NewCachedExpenseRepository(next, NewExpenseListCache(time.Hour))

		next.On("FindAll", ctx, "alice").Return(coffeeList(), nil).Once()

		first, err := repo.FindAll(ctx, "alice")
		assert.NoError(t, err)
		second, err := repo.FindAll(ctx, "alice")
		assert.NoError(t, err)

		assert.Equal(t, first, second)
		next.AssertNumberOfCalls(t, "FindAll", 1)
	})

	t.Run("Writes refresh the cache", func(t *testing.T) {
		next := new(mocks.MockExpenseRepository)
		repo := NewCachedExpenseRepository(next, NewExpenseListCache(time.Hour))

		next.On("ReplaceAll", ctx, "alice", coffeeList()).Return(nil).Once()

		assert.NoError(t, repo.ReplaceAll(ctx, "alice", coffeeList()))

		got, err := repo.FindAll(ctx, "alice")
		assert.NoError(t, err)
		assert.Equal(t, coffeeList(), got)
		next.AssertNotCalled(t, "FindAll", ctx, "alice")
	})

	t.Run("Failed writes drop the entry", func(t *testing.T) {
		next := new(mocks.MockExpenseRepository)
		cache := NewExpenseListCache(time.Hour)
		cache.Put("alice", coffeeList())
		repo := NewCachedExpenseRepository(next, cache)

		next.On("ReplaceAll", ctx, "alice", []entity.Expense{}).Return(errors.New("disk full")).Once()

		assert.Error(t, repo.ReplaceAll(ctx, "alice", []entity.Expense{}))
		assert.Equal(t, 0, cache.Size())
	})

	t.Run("Read errors are not cached", func(t *testing.T) {
		next := new(mocks.MockExpenseRepository)
		cache := NewExpenseListCache(time.Hour)
		repo := NewCachedExpenseRepository(next, cache)

		next.On("FindAll", ctx, "alice").Return(nil, errors.New("io error")).Once()

		_, err := repo.FindAll(ctx, "alice")
		assert.Error(t, err)
		assert.Equal(t, 0, cache.Size())
	})
}

// pausingRepository is an in-memory repository whose next FindAll stops after
// taking its snapshot until release is closed
type pausingRepository struct {
	mu        sync.Mutex
	stored    map[string][]entity.Expense
	pauseNext bool
	paused    chan struct{}
	release   chan struct{}
}

func newPausingRepository() *pausingRepository {
	return &pausingRepository{
		stored:    make(map[string][]entity.Expense),
		pauseNext: true,
		paused:    make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (r *pausingRepository) FindAll(_ context.Context, username string) ([]entity.Expense, error) {
	r.mu.Lock()
	snapshot := copyExpenses(r.stored[username])
	pause := r.pauseNext
	r.pauseNext = false
	r.mu.Unlock()

	if pause {
		close(r.paused)
		<-r.release
	}
	return snapshot, nil
}

func (r *pausingRepository) ReplaceAll(_ context.Context, username string, expenses []entity.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored[username] = copyExpenses(expenses)
	return nil
}

func TestCachedExpenseRepositoryReadOverlappingWrite(t *testing.T) {
	ctx := context.Background()
	next := newPausingRepository()
	repo := NewCachedExpenseRepository(next, NewExpenseListCache(time.Hour))

	staleRead := make(chan []entity.Expense, 1)
	go func() {
		expenses, _ := repo.FindAll(ctx, "alice")
		staleRead <- expenses
	}()

	<-next.paused
	require.NoError(t, repo.ReplaceAll(ctx, "alice", coffeeList()))
	close(next.release)

	// The overlapping read may see the old list but must not cache it
	assert.Empty(t, <-staleRead)

	got, err := repo.FindAll(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, coffeeList(), got)
}

func TestPutIfUnchanged(t *testing.T) {
	cache := NewExpenseListCache(time.Hour)

	generation := cache.Generation()
	assert.True(t, cache.PutIfUnchanged("alice", coffeeList(), generation))

	generation = cache.Generation()
	cache.Invalidate("bob")
	assert.False(t, cache.PutIfUnchanged("alice", nil, generation))

	got, ok := cache.Get("alice")
	assert.True(t, ok)
	assert.Equal(t, coffeeList(), got)
}

func TestCachedExpenseRepositoryConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	next := newPausingRepository()
	next.pauseNext = false
	repo := NewCachedExpenseRepository(next, NewExpenseListCache(time.Hour))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			list := coffeeList()
			list[0].Amount = float64(i + 1)
			assert.NoError(t, repo.ReplaceAll(ctx, "alice", list))
		}(i)
	}
	wg.Wait()

	cached, err := repo.FindAll(ctx, "alice")
	require.NoError(t, err)
	stored, err := next.FindAll(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, stored, cached)
}

func TestStartJanitor(t *testing.T) {
	cache := NewExpenseListCache(time.Millisecond)
	cache.Put("alice", coffeeList())

	stop := cache.StartJanitor(5 * time.Millisecond)
	defer stop()

	assert.Eventually(t, func() bool { return cache.Size() == 0 }, time.Second, 5*time.Millisecond)

	stop()
	stop()
}
