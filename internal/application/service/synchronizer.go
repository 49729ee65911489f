// Package service holds the application logic of the expense page and the
// collection server.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/damon-houk/my-expenses/internal/domain/entity"
	domain "github.com/damon-houk/my-expenses/internal/domain/service"
	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
)

// SyncState is the lifecycle of the list held by a Synchronizer
type SyncState int

const (
	StateUnloaded SyncState = iota
	StateLoading
	StateLoaded
	StateMutating
)

func (s SyncState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateMutating:
		return "mutating"
	default:
		return fmt.Sprintf("SyncState(%d)", int(s))
	}
}

// User-facing messages
const (
	MsgFetchFailed     = "Failed to fetch expenses"
	MsgCreateFailed    = "Failed to create expense"
	MsgDeleteFailed    = "Failed to delete expense"
	MsgCreated         = "Expense created successfully"
	MsgDeleted         = "Expense deleted successfully"
	MsgDraftIncomplete = "Please fill in all fields"
)

var (
	ErrNotLoaded       = errors.New("expenses have not been loaded")
	ErrDraftIncomplete = errors.New("draft is missing required fields")
	ErrIndexOutOfRange = errors.New("expense index out of range")
	ErrExpenseNotFound = errors.New("expense not found")
)

// Synchronizer owns the authoritative in-memory expense list of one user and
// keeps it in step with the remote collection. Local state only changes after
// the store accepts a request.
type Synchronizer struct {
	store    domain.ExpenseStore
	notifier domain.Notifier
	logger   logger.Logger
	username string

	// op serializes Load, Create and Delete
	op sync.Mutex

	mu       sync.RWMutex
	state    SyncState
	expenses []entity.Expense
}

// NewSynchronizer creates a synchronizer for username in the Unloaded state
func NewSynchronizer(store domain.ExpenseStore, notifier domain.Notifier, username string, log logger.Logger) *Synchronizer {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &Synchronizer{
		store:    store,
		notifier: notifier,
		username: username,
		logger: log.WithFields(logger.Fields{
			"component": "synchronizer",
			"username":  username,
		}),
		state:    StateUnloaded,
		expenses: []entity.Expense{},
	}
}

// Username returns the user whose list is held
func (s *Synchronizer) Username() string {
	return s.username
}

// State returns the current lifecycle state
func (s *Synchronizer) State() SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Expenses returns a copy of the held list
func (s *Synchronizer) Expenses() []entity.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneExpenses(s.expenses)
}

// Load replaces the held list with the remote collection. On failure the list
// and the previous state are kept.
func (s *Synchronizer) Load(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	prev := s.transition(StateLoading)

	expenses, err := s.store.FetchExpenses(ctx, s.username)
	if err != nil {
		s.transition(prev)
		s.logger.Error("Error fetching expenses", logger.Fields{"error": err.Error()})
		s.notify(ctx, domain.NoticeError, MsgFetchFailed)
		return fmt.Errorf("failed to fetch expenses: %w", err)
	}

	// Entries that did not change keep their IDs across reloads
	s.mu.RLock()
	entity.CarryIDs(s.expenses, expenses)
	s.mu.RUnlock()

	s.commit(expenses)

	s.logger.Info("Expenses loaded", logger.Fields{"count": len(expenses)})
	return nil
}

// Create appends a record built from draft and sends the resulting list. On
// success the list is adopted and the draft is reset; on failure both are
// left untouched.
func (s *Synchronizer) Create(ctx context.Context, draft *entity.Draft) (entity.Expense, error) {
	if draft == nil || !draft.SubmitEnabled() {
		return entity.Expense{}, ErrDraftIncomplete
	}

	s.op.Lock()
	defer s.op.Unlock()

	current, err := s.beginMutation()
	if err != nil {
		return entity.Expense{}, err
	}

	record := draft.Expense()
	updated := append(current, record)

	if err := s.store.ReplaceExpenses(ctx, s.username, updated); err != nil {
		s.transition(StateLoaded)
		s.logger.Error("Error creating expense", logger.Fields{
			"error": err.Error(),
			"name":  record.Name,
		})
		s.notify(ctx, domain.NoticeError, MsgCreateFailed)
		return entity.Expense{}, fmt.Errorf("failed to create expense: %w", err)
	}

	s.commit(updated)
	draft.Reset()

	s.logger.Info("Expense created", logger.Fields{
		"id":    record.ID,
		"count": len(updated),
	})
	s.notify(ctx, domain.NoticeSuccess, MsgCreated)

	return record, nil
}

// Delete removes the entry at index and sends the resulting list
func (s *Synchronizer) Delete(ctx context.Context, index int) error {
	s.op.Lock()
	defer s.op.Unlock()

	return s.deleteAt(ctx, index)
}

// DeleteByID removes the entry with the given local ID
func (s *Synchronizer) DeleteByID(ctx context.Context, id string) error {
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.RLock()
	index := entity.IndexOf(s.expenses, id)
	s.mu.RUnlock()

	if index < 0 {
		return fmt.Errorf("%w: %s", ErrExpenseNotFound, id)
	}

	return s.deleteAt(ctx, index)
}

// deleteAt requires s.op to be held
func (s *Synchronizer) deleteAt(ctx context.Context, index int) error {
	current, err := s.beginMutation()
	if err != nil {
		return err
	}

	if index < 0 || index >= len(current) {
		s.transition(StateLoaded)
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(current))
	}

	removed := current[index]
	updated := append(current[:index:index], current[index+1:]...)

	if err := s.store.ReplaceExpenses(ctx, s.username, updated); err != nil {
		s.transition(StateLoaded)
		s.logger.Error("Error deleting expense", logger.Fields{
			"error": err.Error(),
			"index": index,
		})
		s.notify(ctx, domain.NoticeError, MsgDeleteFailed)
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	s.commit(updated)

	s.logger.Info("Expense deleted", logger.Fields{
		"id":    removed.ID,
		"index": index,
		"count": len(updated),
	})
	s.notify(ctx, domain.NoticeSuccess, MsgDeleted)

	return nil
}

// beginMutation moves Loaded to Mutating and returns a copy of the list
func (s *Synchronizer) beginMutation() ([]entity.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoaded {
		return nil, fmt.Errorf("%w: state is %s", ErrNotLoaded, s.state)
	}

	s.state = StateMutating
	return cloneExpenses(s.expenses), nil
}

func (s *Synchronizer) transition(to SyncState) SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	s.state = to
	return prev
}

func (s *Synchronizer) commit(expenses []entity.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expenses = expenses
	s.state = StateLoaded
}

func (s *Synchronizer) notify(ctx context.Context, level domain.NoticeLevel, msg string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, domain.Notice{Level: level, Message: msg})
}

func cloneExpenses(expenses []entity.Expense) []entity.Expense {
	out := make([]entity.Expense, len(expenses))
	copy(out, expenses)
	return out
}
