// Package analytics records usage events such as clock-ins and swept
// logins.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jw6ventures/punchclock/internal/timeclock"
)

// Event is a single analytics record.
type Event struct {
	ID          string
	Timestamp   int64
	User        string
	Description string
}

// Backend stores or forwards events.
type Backend interface {
	Send(ctx context.Context, event Event) error
	Close() error
}

// Recorder fans events out to its backends in the background.
type Recorder struct {
	backends []Backend
	timeout  time.Duration
	logger   *zap.Logger
	wg       sync.WaitGroup
}

var _ timeclock.Analytics = (*Recorder)(nil)

// NewRecorder returns a Recorder. With no backends every event is dropped.
func NewRecorder(logger *zap.Logger, backends ...Backend) *Recorder {
	return &Recorder{backends: backends, timeout: 5 * time.Second, logger: logger}
}

// RecordEvent returns immediately; delivery failures are only logged.
func (r *Recorder) RecordEvent(ctx context.Context, timestamp int64, user, description string) {
	if len(r.backends) == 0 {
		return
	}
	ev := Event{ID: uuid.NewString(), Timestamp: timestamp, User: user, Description: description}
	base := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(base, r.timeout)
		defer cancel()
		for _, b := range r.backends {
			if err := b.Send(ctx, ev); err != nil {
				r.logger.Warn("failed to record analytics event",
					zap.String("event", ev.Description),
					zap.String("user", ev.User),
					zap.Error(err))
			}
		}
	}()
}

// Close waits for in-flight events and closes every backend.
func (r *Recorder) Close() error {
	r.wg.Wait()
	var errs error
	for _, b := range r.backends {
		errs = multierr.Append(errs, b.Close())
	}
	return errs
}
