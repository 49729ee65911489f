package service

import "context"

// NoticeLevel tells the user whether an operation worked
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-facing message produced by an operation
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Notifier surfaces notices to whoever is driving the page
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}
