package cache

import (
	"context"
	"sync"
	"time"

	"github.com/damon-houk/my-expenses/internal/domain/entity"
	"github.com/damon-houk/my-expenses/internal/domain/repository"
)

// DefaultExpiration is how long a cached list is served without a storage read
const DefaultExpiration = 5 * time.Minute

// CacheEntry is a cached expense list with the time it was stored
type CacheEntry struct {
	Expenses  []entity.Expense
	Timestamp time.Time
}

// ExpenseListCache is a thread-safe in-memory cache of expense lists keyed by username
type ExpenseListCache struct {
	cache      map[string]CacheEntry
	expiration time.Duration
	mutex      sync.RWMutex
	now        func() time.Time

	// generation moves on every Put and Invalidate
	generation uint64
}

// NewExpenseListCache creates a cache. A non-positive expiration uses DefaultExpiration.
func NewExpenseListCache(expiration time.Duration) *ExpenseListCache {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}

	return &ExpenseListCache{
		cache:      make(map[string]CacheEntry),
		expiration: expiration,
		now:        time.Now,
	}
}

// Get returns a copy of the cached list if present and not expired
func (c *ExpenseListCache) Get(username string) ([]entity.Expense, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.cache[username]
	if !exists || c.now().Sub(entry.Timestamp) > c.expiration {
		return nil, false
	}

	return copyExpenses(entry.Expenses), true
}

// Generation returns a token for PutIfUnchanged
func (c *ExpenseListCache) Generation() uint64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.generation
}

// Put stores a copy of the list for username
func (c *ExpenseListCache) Put(username string, expenses []entity.Expense) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.put(username, expenses)
	c.generation++
}

// PutIfUnchanged stores the list only if no Put or Invalidate happened since
// generation was read. It reports whether the list was stored.
func (c *ExpenseListCache) PutIfUnchanged(username string, expenses []entity.Expense, generation uint64) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.generation != generation {
		return false
	}
	c.put(username, expenses)
	return true
}

func (c *ExpenseListCache) put(username string, expenses []entity.Expense) {
	c.cache[username] = CacheEntry{
		Expenses:  copyExpenses(expenses),
		Timestamp: c.now(),
	}
}

// Invalidate drops the entry for username
func (c *ExpenseListCache) Invalidate(username string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.cache, username)
	c.generation++
}

// Clear clears all entries from the cache
func (c *ExpenseListCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[string]CacheEntry)
}

// Size returns the number of items in the cache
func (c *ExpenseListCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

// CleanExpired removes expired entries and returns how many were removed
func (c *ExpenseListCache) CleanExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	count := 0
	now := c.now()

	for key, entry := range c.cache {
		if now.Sub(entry.Timestamp) > c.expiration {
			delete(c.cache, key)
			count++
		}
	}

	return count
}

// StartJanitor runs CleanExpired every interval until the returned stop
// function is called. A non-positive interval uses the cache expiration.
func (c *ExpenseListCache) StartJanitor(interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = c.expiration
	}

	done := make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.CleanExpired()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func copyExpenses(expenses []entity.Expense) []entity.Expense {
	out := make([]entity.Expense, len(expenses))
	copy(out, expenses)
	return out
}

// CachedExpenseRepository serves reads from an ExpenseListCache and writes through to the wrapped repository
type CachedExpenseRepository struct {
	next  repository.ExpenseRepository
	cache *ExpenseListCache

	// writeMu keeps the cached list in the same order as the stored writes
	writeMu sync.Mutex
}

// NewCachedExpenseRepository wraps next with cache
func NewCachedExpenseRepository(next repository.ExpenseRepository, cache *ExpenseListCache) *CachedExpenseRepository {
	return &CachedExpenseRepository{next: next, cache: cache}
}

// FindAll returns the cached list or loads and caches it. A load that overlaps
// a write is returned but not cached.
func (r *CachedExpenseRepository) FindAll(ctx context.Context, username string) ([]entity.Expense, error) {
	if expenses, ok := r.cache.Get(username); ok {
		return expenses, nil
	}

	generation := r.cache.Generation()

	expenses, err := r.next.FindAll(ctx, username)
	if err != nil {
		return nil, err
	}

	r.cache.PutIfUnchanged(username, expenses, generation)
	return expenses, nil
}

// ReplaceAll writes through and refreshes the cached list. A failed write drops the entry.
func (r *CachedExpenseRepository) ReplaceAll(ctx context.Context, username string, expenses []entity.Expense) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.next.ReplaceAll(ctx, username, expenses); err != nil {
		r.cache.Invalidate(username)
		return err
	}

	r.cache.Put(username, expenses)
	return nil
}
