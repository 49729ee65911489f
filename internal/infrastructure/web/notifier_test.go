package web

import (
	"bytes"
	"context"
	"testing"

	domain "github.com/damon-houk/my-expenses/internal/domain/service"
	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
	"github.com/damon-houk/my-expenses/internal/mocks"
	"github.com/stretchr/testify/assert"
)

func TestFlashNotifierDrain(t *testing.T) {
	flash := NewFlashNotifier()
	ctx := context.Background()

	assert.Empty(t, flash.Drain())

	flash.Notify(ctx, domain.Notice{Level: domain.NoticeError, Message: "first"})
	flash.Notify(ctx, domain.Notice{Level: domain.NoticeSuccess, Message: "second"})

	notices := flash.Drain()
	assert.Equal(t, []domain.Notice{
		{Level: domain.NoticeError, Message: "first"},
		{Level: domain.NoticeSuccess, Message: "second"},
	}, notices)
	assert.Empty(t, flash.Drain())
}

func TestLoggingNotifier(t *testing.T) {
	var buf bytes.Buffer
	next := &mocks.RecordingNotifier{}
	notifier := NewLoggingNotifier(next, logger.NewJSONLogger(&buf, logger.InfoLevel))

	notifier.Notify(context.Background(), domain.Notice{Level: domain.NoticeError, Message: "Failed to fetch expenses"})

	assert.Equal(t, "Failed to fetch expenses", next.Last().Message)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), "Failed to fetch expenses")

	// No next notifier only logs
	NewLoggingNotifier(nil, logger.Discard()).Notify(context.Background(), domain.Notice{Level: domain.NoticeSuccess, Message: "ok"})
}
