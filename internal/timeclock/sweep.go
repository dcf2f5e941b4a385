package timeclock

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jw6ventures/punchclock/internal/metrics"
	"github.com/jw6ventures/punchclock/internal/store"
)

const (
	outstandingLoginEvent   = "outstanding_login"
	outstandingLoginSubject = "Lab Hours"
	outstandingLoginBody    = "You didn't sign out of the lab today; these hours have been lost."
)

// Sweeper discards clock-ins left open at the end of the day.
type Sweeper struct {
	users     store.UserRepository
	mailer    Mailer
	analytics Analytics
	locks     *KeyedMutex
	now       func() time.Time
	logger    *zap.Logger
}

func NewSweeper(users store.UserRepository, mailer Mailer, analytics Analytics, locks *KeyedMutex, logger *zap.Logger) *Sweeper {
	if analytics == nil {
		analytics = noopAnalytics{}
	}
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &Sweeper{users: users, mailer: mailer, analytics: analytics, locks: locks, now: time.Now, logger: logger}
}

// SweepOutstandingLogins removes the trailing clock-in of every user still
// clocked in and notifies them by email. Users are processed one at a time;
// a failure for one user is logged and the sweep moves on. All failures are
// returned together.
func (s *Sweeper) SweepOutstandingLogins(ctx context.Context) error {
	users, err := s.users.FindAllCurrentlyIn(ctx)
	if err != nil {
		return fmt.Errorf("list clocked-in users: %w", err)
	}

	var (
		errs    error
		removed int
	)
	for _, candidate := range users {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		user, ok, err := s.discardOpenSession(ctx, candidate.ID)
		if err != nil {
			s.logger.Error("failed to discard outstanding login", zap.String("user", candidate.ID), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		removed++
		s.analytics.RecordEvent(ctx, s.now().UnixMilli(), user.ID, outstandingLoginEvent)

		if err := s.notify(ctx, user); err != nil {
			metrics.IncSinkFailure("mail")
			s.logger.Error("failed to send outstanding login email", zap.String("user", user.ID), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	metrics.AddSweepRemovals(removed)
	s.logger.Info("outstanding login sweep finished", zap.Int("candidates", len(users)), zap.Int("removed", removed))
	return errs
}

// discardOpenSession reloads the user under lock and drops every clock-in
// after the last clock-out. ok is false when the user is no longer clocked in.
func (s *Sweeper) discardOpenSession(ctx context.Context, id string) (store.User, bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return store.User{}, false, fmt.Errorf("load user %s: %w", id, err)
	}
	if user == nil {
		return store.User{}, false, nil
	}
	last, ok := lastEvent(*user)
	if !ok || !last.ClockingIn {
		if user.InNow != nil && *user.InNow {
			// Flag says in but the history disagrees; trust the history.
			fixed := withTail(*user)
			if _, err := s.users.Save(ctx, fixed); err != nil {
				return store.User{}, false, fmt.Errorf("repair clock state for %s: %w", id, err)
			}
		}
		return store.User{}, false, nil
	}

	// Repeated clock-ins all belong to the abandoned session.
	sorted := store.SortedEvents(user.ClockEvents)
	keep := len(sorted)
	for keep > 0 && sorted[keep-1].ClockingIn {
		keep--
	}
	next := *user
	next.ClockEvents = sorted[:keep]
	next = withTail(next)
	saved, err := s.users.Save(ctx, next)
	if err != nil {
		return store.User{}, false, fmt.Errorf("save swept history for %s: %w", id, err)
	}
	s.logger.Info("discarded outstanding login", zap.String("user", id), zap.Int64("timestamp", last.Timestamp))
	return *saved, true, nil
}

func (s *Sweeper) notify(ctx context.Context, user store.User) error {
	if user.Email == "" {
		s.logger.Warn("user has no email address; skipping notification", zap.String("user", user.ID))
		return nil
	}
	return s.mailer.Send(ctx, []Email{{
		To:      user.Email,
		Subject: outstandingLoginSubject,
		Body:    outstandingLoginBody,
	}})
}
