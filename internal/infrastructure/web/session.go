package web

import (
	"sync"
	"time"

	"github.com/damon-houk/my-expenses/internal/application/service"
	"github.com/damon-houk/my-expenses/internal/domain/entity"
	domain "github.com/damon-houk/my-expenses/internal/domain/service"
	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
)

// DefaultSessionTTL is how long an unused session is kept
const DefaultSessionTTL = 30 * time.Minute

// session is the page state of one user
type session struct {
	syncer *service.Synchronizer
	flash  *FlashNotifier

	// mu guards draft
	mu    sync.Mutex
	draft *entity.Draft

	// lastSeen is guarded by the registry mutex
	lastSeen time.Time
}

// sessionRegistry hands out one session per username and forgets sessions
// that were idle for longer than idleTTL
type sessionRegistry struct {
	store   domain.ExpenseStore
	logger  logger.Logger
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	sessions  map[string]*session
	lastSweep time.Time
}

func newSessionRegistry(store domain.ExpenseStore, idleTTL time.Duration, log logger.Logger) *sessionRegistry {
	if idleTTL <= 0 {
		idleTTL = DefaultSessionTTL
	}

	r := &sessionRegistry{
		store:    store,
		logger:   log,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	r.lastSweep = r.now()
	return r
}

// get returns the session of username, creating it on first use. Idle
// sessions are swept at most once per idleTTL.
func (r *sessionRegistry) get(username string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) >= r.idleTTL {
		r.cleanIdleLocked(now)
	}

	if s, ok := r.sessions[username]; ok {
		s.lastSeen = now
		return s
	}

	flash := NewFlashNotifier()
	notifier := NewLoggingNotifier(flash, r.logger.WithField("username", username))
	s := &session{
		syncer:   service.NewSynchronizer(r.store, notifier, username, r.logger),
		flash:    flash,
		draft:    entity.NewDraft(),
		lastSeen: now,
	}
	r.sessions[username] = s

	r.logger.Debug("Session created", logger.Fields{"username": username})
	return s
}

// cleanIdle removes idle sessions and returns how many were removed
func (r *sessionRegistry) cleanIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cleanIdleLocked(r.now())
}

func (r *sessionRegistry) cleanIdleLocked(now time.Time) int {
	count := 0
	for username, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.idleTTL {
			delete(r.sessions, username)
			count++
		}
	}
	r.lastSweep = now

	if count > 0 {
		r.logger.Debug("Idle sessions removed", logger.Fields{"count": count})
	}
	return count
}

func (r *sessionRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
