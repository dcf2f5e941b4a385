package timeclock

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jw6ventures/punchclock/internal/store"
)

// Admin implements out-of-band corrections to the clock ledger.
type Admin struct {
	users   store.UserRepository
	cache   store.HoursCache
	counter *HoursCounter
	sink    HourSink
	locks   *KeyedMutex
	logger  *zap.Logger
}

func NewAdmin(users store.UserRepository, cache store.HoursCache, counter *HoursCounter, sink HourSink, locks *KeyedMutex, logger *zap.Logger) *Admin {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &Admin{users: users, cache: cache, counter: counter, sink: sink, locks: locks, logger: logger}
}

// UserChanges lists the fields EditUser should replace. Nil fields keep
// their stored value.
type UserChanges struct {
	ID    *string
	Name  *string
	Email *string
}

// UserSummary is a user enriched with derived clock data.
type UserSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	ClockedIn     bool   `json:"clockedIn"`
	TimeIn        int64  `json:"timeIn"`
	LastEventTime string `json:"lastEventTime"`
}

// VoidLastClock removes the user's newest clock-in. The hours sink is not
// touched; the cached total is dropped so the next read recomputes it.
func (a *Admin) VoidLastClock(ctx context.Context, id string) error {
	unlock := a.locks.Lock(id)
	defer unlock()

	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load user %s: %w", id, err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	last, ok := lastEvent(*user)
	if !ok {
		return ErrNeverClockedIn
	}
	if !last.ClockingIn {
		return ErrAlreadyClockedInOrOut
	}

	sorted := store.SortedEvents(user.ClockEvents)
	next := *user
	next.ClockEvents = sorted[:len(sorted)-1]
	next = withTail(next)
	if _, err := a.users.Save(ctx, next); err != nil {
		return fmt.Errorf("save voided history for %s: %w", id, err)
	}
	if err := a.cache.Delete(ctx, id); err != nil {
		a.logger.Warn("failed to drop cached hours after void", zap.String("user", id), zap.Error(err))
	}
	a.logger.Info("voided last clock", zap.String("user", id), zap.Int64("timestamp", last.Timestamp))
	return nil
}

// ResetAllHours clears every user's history, zeroes their hours in the sink
// and empties the hours cache. Failures for one user do not stop the rest;
// they are returned together.
func (a *Admin) ResetAllHours(ctx context.Context) error {
	a.logger.Info("resetting all user hour counts")
	users, err := a.users.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var errs error
	for _, user := range users {
		errs = multierr.Append(errs, a.resetUser(ctx, user.ID))
	}
	if err := a.cache.DeleteAll(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("clear hours cache: %w", err))
	}
	a.logger.Info("reset complete", zap.Int("users", len(users)), zap.Int("failures", len(multierr.Errors(errs))))
	return errs
}

func (a *Admin) resetUser(ctx context.Context, id string) error {
	unlock := a.locks.Lock(id)
	defer unlock()

	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load user %s: %w", id, err)
	}
	if user == nil {
		return nil
	}
	next := *user
	next.ClockEvents = nil
	next.InNow = boolPtr(false)
	next.LastEvent = nil
	saved, err := a.users.Save(ctx, next)
	if err != nil {
		return fmt.Errorf("reset user %s: %w", id, err)
	}
	if err := a.sink.SetHours(ctx, *saved, 0); err != nil {
		a.logger.Error("failed to zero hours in sink", zap.String("user", id), zap.Error(err))
	}
	return nil
}

// EditUser applies changes to the user with the given id. Renaming the id
// moves the record and drops the old id's cached total.
func (a *Admin) EditUser(ctx context.Context, id string, changes UserChanges) (*store.User, error) {
	keys := []string{id}
	if changes.ID != nil {
		keys = append(keys, *changes.ID)
	}
	unlock := a.locks.LockAll(keys...)
	defer unlock()

	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	if user == nil {
		return nil, ErrNoSuchUser
	}

	next := *user
	if changes.Name != nil {
		next.Name = *changes.Name
	}
	if changes.Email != nil {
		next.Email = *changes.Email
	}
	renamed := changes.ID != nil && *changes.ID != id
	if renamed {
		exists, err := a.users.ExistsByID(ctx, *changes.ID)
		if err != nil {
			return nil, fmt.Errorf("check user %s: %w", *changes.ID, err)
		}
		if exists {
			return nil, ErrUserAlreadyExists
		}
		next.ID = *changes.ID
	}

	saved, err := a.users.Save(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("save user %s: %w", next.ID, err)
	}
	if renamed {
		if err := a.users.DeleteByID(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("remove old user %s: %w", id, err)
		}
		if err := a.cache.Delete(ctx, id); err != nil {
			a.logger.Warn("failed to drop cached hours for renamed user", zap.String("user", id), zap.Error(err))
		}
	}
	return saved, nil
}

// AddUser creates a user with an empty history.
func (a *Admin) AddUser(ctx context.Context, id, name, email string) (*store.User, error) {
	unlock := a.locks.Lock(id)
	defer unlock()

	exists, err := a.users.ExistsByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check user %s: %w", id, err)
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}
	saved, err := a.users.Save(ctx, store.User{ID: id, Name: name, Email: email, InNow: boolPtr(false)})
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", id, err)
	}
	return saved, nil
}

// RemoveUser deletes the user and their history.
func (a *Admin) RemoveUser(ctx context.Context, id string) error {
	unlock := a.locks.Lock(id)
	defer unlock()

	err := a.users.DeleteByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoSuchUser
	}
	if err != nil {
		return fmt.Errorf("remove user %s: %w", id, err)
	}
	return nil
}

// AllUsers lists every user with clock state and accumulated time. Totals
// come from the cache where present.
func (a *Admin) AllUsers(ctx context.Context) ([]UserSummary, error) {
	users, err := a.users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	summaries := make([]UserSummary, 0, len(users))
	for _, user := range users {
		s := UserSummary{
			ID:            user.ID,
			Name:          user.Name,
			Email:         user.Email,
			ClockedIn:     CurrentlyIn(user),
			TimeIn:        a.counter.CachedTotalMs(ctx, user),
			LastEventTime: "0",
		}
		if ev, ok := lastEvent(user); ok {
			s.LastEventTime = strconv.FormatInt(ev.Timestamp, 10)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// UserHistory returns the user's events oldest first.
func (a *Admin) UserHistory(ctx context.Context, id string) ([]store.ClockEvent, error) {
	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	if user == nil {
		return nil, ErrNoSuchUser
	}
	return store.SortedEvents(user.ClockEvents), nil
}
