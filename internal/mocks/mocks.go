// internal/mocks/mocks.go
package mocks

import (
	"context"
	"sync"

	"github.com/damon-houk/my-expenses/internal/domain/entity"
	"github.com/damon-houk/my-expenses/internal/domain/service"
	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
	"github.com/stretchr/testify/mock"
)

// MockExpenseStore mocks the ExpenseStore interface
type MockExpenseStore struct {
	mock.Mock
}

func (m *MockExpenseStore) FetchExpenses(ctx context.Context, username string) ([]entity.Expense, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Hand out a copy so callers cannot alter the configured return value
	expenses := args.Get(0).([]entity.Expense)
	out := make([]entity.Expense, len(expenses))
	copy(out, expenses)
	return out, args.Error(1)
}

func (m *MockExpenseStore) ReplaceExpenses(ctx context.Context, username string, expenses []entity.Expense) error {
	args := m.Called(ctx, username, expenses)
	return args.Error(0)
}

// MockExpenseRepository mocks the ExpenseRepository interface
type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) FindAll(ctx context.Context, username string) ([]entity.Expense, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Expense), args.Error(1)
}

func (m *MockExpenseRepository) ReplaceAll(ctx context.Context, username string, expenses []entity.Expense) error {
	args := m.Called(ctx, username, expenses)
	return args.Error(0)
}

// RecordingNotifier collects every notice it receives
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []service.Notice
}

func (n *RecordingNotifier) Notify(_ context.Context, notice service.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

// Notices returns the notices received so far
func (n *RecordingNotifier) Notices() []service.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]service.Notice, len(n.notices))
	copy(out, n.notices)
	return out
}

// Last returns the most recent notice, or the zero Notice
func (n *RecordingNotifier) Last() service.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return service.Notice{}
	}
	return n.notices[len(n.notices)-1]
}

// MockLogger mocks the logger interface
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, fields logger.Fields) {
	m.Called(msg, fields)
}

func (m *MockLogger) Info(msg string, fields logger.Fields) {
	m.Called(msg, fields)
}

func (m *MockLogger) Warn(msg string, fields logger.Fields) {
	m.Called(msg, fields)
}

func (m *MockLogger) Error(msg string, fields logger.Fields) {
	m.Called(msg, fields)
}

func (m *MockLogger) Fatal(msg string, fields logger.Fields) {
	m.Called(msg, fields)
}

func (m *MockLogger) WithField(key string, value interface{}) logger.Logger {
	args := m.Called(key, value)
	return args.Get(0).(logger.Logger)
}

func (m *MockLogger) WithFields(fields logger.Fields) logger.Logger {
	args := m.Called(fields)
	return args.Get(0).(logger.Logger)
}
