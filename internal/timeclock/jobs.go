package timeclock

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jw6ventures/punchclock/internal/metrics"
	"github.com/jw6ventures/punchclock/internal/store"
)

const msPerHour = 3_600_000

// Jobs holds the background work dispatched after clock transitions. Both
// the in-process worker pool and the Redis queue run these.
type Jobs struct {
	users   store.UserRepository
	counter *HoursCounter
	sink    HourSink
	display LoggedInDisplay
	logger  *zap.Logger
}

// NewJobs wires the background work. display may be nil.
func NewJobs(users store.UserRepository, counter *HoursCounter, sink HourSink, display LoggedInDisplay, logger *zap.Logger) *Jobs {
	return &Jobs{users: users, counter: counter, sink: sink, display: display, logger: logger}
}

// Recompute refreshes the user's cached total and pushes the hours to the sink.
func (j *Jobs) Recompute(ctx context.Context, userID string) error {
	user, err := j.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", userID, err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	total := j.counter.TotalMs(ctx, *user)
	hours := float64(total) / msPerHour
	if err := j.sink.SetHours(ctx, *user, hours); err != nil {
		metrics.IncSinkFailure("hours")
		return fmt.Errorf("push hours for %s: %w", userID, err)
	}
	j.logger.Debug("hours updated", zap.String("user", userID), zap.Float64("hours", hours))
	return nil
}

// RefreshDisplay republishes the logged-in display. It is a no-op without
// a display.
func (j *Jobs) RefreshDisplay(ctx context.Context) error {
	if j.display == nil {
		return nil
	}
	users, err := j.users.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if err := j.display.ShowLoggedIn(ctx, users); err != nil {
		metrics.IncSinkFailure("display")
		return fmt.Errorf("update logged-in display: %w", err)
	}
	return nil
}
