package timeclock

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jw6ventures/punchclock/internal/metrics"
	"github.com/jw6ventures/punchclock/internal/store"
)

// Tracker applies clock-in and clock-out transitions.
type Tracker struct {
	users      store.UserRepository
	locks      *KeyedMutex
	dispatcher Dispatcher
	analytics  Analytics
	logger     *zap.Logger
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithAnalytics records clock attempts through a.
func WithAnalytics(a Analytics) TrackerOption {
	return func(t *Tracker) {
		t.analytics = a
	}
}

// WithLocks shares a per-user lock set with other components.
func WithLocks(locks *KeyedMutex) TrackerOption {
	return func(t *Tracker) {
		t.locks = locks
	}
}

func NewTracker(users store.UserRepository, dispatcher Dispatcher, logger *zap.Logger, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		users:      users,
		locks:      NewKeyedMutex(),
		dispatcher: dispatcher,
		analytics:  noopAnalytics{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RecordClockIn clocks the user in at timeMs.
func (t *Tracker) RecordClockIn(ctx context.Context, id string, timeMs int64) error {
	return t.record(ctx, id, timeMs, true)
}

// RecordClockOut clocks the user out at timeMs and schedules a recompute of
// their hours. It returns before the recompute runs.
func (t *Tracker) RecordClockOut(ctx context.Context, id string, timeMs int64) error {
	return t.record(ctx, id, timeMs, false)
}

// Record dispatches to RecordClockIn or RecordClockOut.
func (t *Tracker) Record(ctx context.Context, id string, timeMs int64, clockingIn bool) error {
	return t.record(ctx, id, timeMs, clockingIn)
}

func (t *Tracker) record(ctx context.Context, id string, timeMs int64, clockingIn bool) error {
	err := t.transition(ctx, id, timeMs, clockingIn)
	t.observe(ctx, id, timeMs, clockingIn, err)
	if err != nil {
		return err
	}

	if !clockingIn {
		if err := t.dispatcher.DispatchRecompute(ctx, id); err != nil {
			t.logger.Error("failed to schedule hours recompute", zap.String("user", id), zap.Error(err))
		}
	}
	if err := t.dispatcher.DispatchDisplayRefresh(ctx); err != nil {
		t.logger.Warn("failed to schedule display refresh", zap.Error(err))
	}
	return nil
}

func (t *Tracker) transition(ctx context.Context, id string, timeMs int64, clockingIn bool) error {
	unlock := t.locks.Lock(id)
	defer unlock()

	user, err := t.users.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load user %s: %w", id, err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	in := CurrentlyIn(*user)
	if in == clockingIn {
		if user.InNow == nil {
			// Heal the missing flag so later reads skip derivation.
			healed := *user
			healed.InNow = boolPtr(in)
			if _, err := t.users.Save(ctx, healed); err != nil {
				t.logger.Warn("failed to backfill clock state", zap.String("user", id), zap.Error(err))
			}
		}
		return ErrAlreadyClockedInOrOut
	}

	next := *user
	next.ClockEvents = append(append([]store.ClockEvent(nil), user.ClockEvents...),
		store.ClockEvent{Timestamp: timeMs, ClockingIn: clockingIn})
	next.InNow = boolPtr(clockingIn)
	next.LastEvent = &timeMs
	if _, err := t.users.Save(ctx, next); err != nil {
		return fmt.Errorf("save clock event for %s: %w", id, err)
	}
	t.logger.Debug("clock event recorded",
		zap.String("user", id),
		zap.Int64("timestamp", timeMs),
		zap.Bool("clocking_in", clockingIn))
	return nil
}

func (t *Tracker) observe(ctx context.Context, id string, timeMs int64, clockingIn bool, err error) {
	direction := "clock_out"
	if clockingIn {
		direction = "clock_in"
	}
	if err == nil {
		metrics.ObserveClockTransition(clockingIn, "ok")
		t.analytics.RecordEvent(ctx, timeMs, id, direction)
		return
	}

	var domainErr *Error
	if errors.As(err, &domainErr) {
		metrics.ObserveClockTransition(clockingIn, domainErr.Code)
		t.analytics.RecordEvent(ctx, timeMs, id, direction+"_failed_"+domainErr.Code)
		return
	}
	metrics.ObserveClockTransition(clockingIn, "error")
}
