package timeclock

import (
	"context"

	"github.com/jw6ventures/punchclock/internal/store"
)

// HourSink receives a user's accumulated hours, e.g. a spreadsheet.
type HourSink interface {
	SetHours(ctx context.Context, user store.User, hours float64) error
}

// LoggedInDisplay publishes who is clocked in.
type LoggedInDisplay interface {
	ShowLoggedIn(ctx context.Context, users []store.User) error
}

// Email is a single plain-text message.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages. Callers treat failures as best-effort.
type Mailer interface {
	Send(ctx context.Context, messages []Email) error
}

// Analytics records usage events. Implementations must not block the
// caller for long and never report failures.
type Analytics interface {
	RecordEvent(ctx context.Context, timestamp int64, user, description string)
}

// Dispatcher schedules background work produced by clock transitions.
type Dispatcher interface {
	DispatchRecompute(ctx context.Context, userID string) error
	DispatchDisplayRefresh(ctx context.Context) error
}

type noopAnalytics struct{}

func (noopAnalytics) RecordEvent(context.Context, int64, string, string) {}
