package web

import (
	"context"
	"sync"

	domain "github.com/damon-houk/my-expenses/internal/domain/service"
	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
	"github.com/damon-houk/my-expenses/internal/infrastructure/middleware"
)

// FlashNotifier queues notices until the next page render drains them
type FlashNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
}

// NewFlashNotifier creates an empty flash notifier
func NewFlashNotifier() *FlashNotifier {
	return &FlashNotifier{}
}

// Notify queues a notice
func (f *FlashNotifier) Notify(_ context.Context, notice domain.Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice)
}

// Drain returns the queued notices in arrival order and empties the queue
func (f *FlashNotifier) Drain() []domain.Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.notices
	f.notices = nil
	return out
}

// LoggingNotifier logs every notice before handing it to next
type LoggingNotifier struct {
	next   domain.Notifier
	logger logger.Logger
}

// NewLoggingNotifier wraps next. A nil next only logs.
func NewLoggingNotifier(next domain.Notifier, log logger.Logger) *LoggingNotifier {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &LoggingNotifier{next: next, logger: log}
}

// Notify logs the notice and forwards it
func (n *LoggingNotifier) Notify(ctx context.Context, notice domain.Notice) {
	fields := logger.Fields{
		"request_id":     middleware.GetRequestID(ctx),
		"notice_level":   string(notice.Level),
		"notice_message": notice.Message,
	}
	if notice.Level == domain.NoticeError {
		n.logger.Warn("User notified", fields)
	} else {
		n.logger.Info("User notified", fields)
	}

	if n.next != nil {
		n.next.Notify(ctx, notice)
	}
}
