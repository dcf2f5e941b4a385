package timeclock

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jw6ventures/punchclock/internal/store"
)

type fakeUsers struct {
	mu      sync.Mutex
	users   map[string]store.User
	saves   int
	saveErr error
}

func newFakeUsers(users ...store.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]store.User)}
	for _, u := range users {
		f.users[u.ID] = cloneUser(u)
	}
	return f
}

func cloneUser(u store.User) store.User {
	c := u
	c.ClockEvents = store.SortedEvents(u.ClockEvents)
	if u.InNow != nil {
		c.InNow = boolPtr(*u.InNow)
	}
	if u.LastEvent != nil {
		ts := *u.LastEvent
		c.LastEvent = &ts
	}
	return c
}

func (f *fakeUsers) get(id string) store.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneUser(f.users[id])
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	c := cloneUser(u)
	return &c, nil
}

func (f *fakeUsers) FindByName(_ context.Context, name string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Name == name {
			c := cloneUser(u)
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) Save(_ context.Context, user store.User) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saves++
	c := cloneUser(user)
	f.users[user.ID] = c
	out := cloneUser(c)
	return &out, nil
}

func (f *fakeUsers) ExistsByID(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeUsers) DeleteByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) FindAll(_ context.Context) ([]store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) FindAllCurrentlyIn(ctx context.Context) ([]store.User, error) {
	all, _ := f.FindAll(ctx)
	var out []store.User
	for _, u := range all {
		if u.InNow != nil && *u.InNow {
			out = append(out, u)
			continue
		}
		if u.InNow == nil && IsUserLoggedIn(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]int64
	putErr  error
	getErr  error
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]int64)}
}

func (c *fakeCache) Get(_ context.Context, userID string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return 0, false, c.getErr
	}
	v, ok := c.entries[userID]
	return v, ok, nil
}

func (c *fakeCache) Put(_ context.Context, userID string, totalMs int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	if c.putErr != nil {
		return c.putErr
	}
	c.entries[userID] = totalMs
	return nil
}

func (c *fakeCache) Delete(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}

func (c *fakeCache) DeleteAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]int64)
	return nil
}

func (c *fakeCache) lookup(userID string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[userID]
	return v, ok
}

type fakeSink struct {
	mu    sync.Mutex
	hours map[string]float64
	err   error
}

func newFakeSink() *fakeSink {
	return &fakeSink{hours: make(map[string]float64)}
}

func (s *fakeSink) SetHours(_ context.Context, user store.User, hours float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.hours[user.ID] = hours
	return nil
}

func (s *fakeSink) get(id string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.hours[id]
	return v, ok
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []Email
	fail map[string]bool
}

func (m *fakeMailer) Send(_ context.Context, messages []Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range messages {
		if m.fail[msg.To] {
			return errors.New("smtp unavailable")
		}
		m.sent = append(m.sent, msg)
	}
	return nil
}

type recordedEvent struct {
	timestamp   int64
	user        string
	description string
}

type fakeAnalytics struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (a *fakeAnalytics) RecordEvent(_ context.Context, timestamp int64, user, description string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, recordedEvent{timestamp: timestamp, user: user, description: description})
}

func (a *fakeAnalytics) descriptions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.events))
	for i, e := range a.events {
		out[i] = e.description
	}
	return out
}

// syncDispatcher runs jobs inline and remembers what it was asked to do.
type syncDispatcher struct {
	jobs       *Jobs
	recomputes []string
	refreshes  int
	err        error
}

func (d *syncDispatcher) DispatchRecompute(ctx context.Context, userID string) error {
	d.recomputes = append(d.recomputes, userID)
	if d.err != nil {
		return d.err
	}
	if d.jobs != nil {
		return d.jobs.Recompute(ctx, userID)
	}
	return nil
}

func (d *syncDispatcher) DispatchDisplayRefresh(ctx context.Context) error {
	d.refreshes++
	if d.jobs != nil {
		return d.jobs.RefreshDisplay(ctx)
	}
	return nil
}

func events(pairs ...any) []store.ClockEvent {
	var out []store.ClockEvent
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, store.ClockEvent{Timestamp: int64(pairs[i].(int)), ClockingIn: pairs[i+1].(bool)})
	}
	return out
}
