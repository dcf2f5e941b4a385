package timeclock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jw6ventures/punchclock/internal/store"
)

func newAdminFixture(users ...store.User) (*Admin, *fakeUsers, *fakeCache, *fakeSink) {
	logger := zap.NewNop()
	repo := newFakeUsers(users...)
	cache := newFakeCache()
	sink := newFakeSink()
	return NewAdmin(repo, cache, NewHoursCounter(cache, logger), sink, NewKeyedMutex(), logger), repo, cache, sink
}

func strPtr(s string) *string { return &s }

func TestVoidLastClockOnlyEvent(t *testing.T) {
	admin, repo, cache, sink := newAdminFixture(store.User{ID: "u1", ClockEvents: events(1000, true), InNow: boolPtr(true), LastEvent: new(int64)})
	require.NoError(t, cache.Put(context.Background(), "u1", 99))

	require.NoError(t, admin.VoidLastClock(context.Background(), "u1"))

	u := repo.get("u1")
	assert.Empty(t, u.ClockEvents)
	require.NotNil(t, u.InNow)
	assert.False(t, *u.InNow)
	assert.Nil(t, u.LastEvent)
	_, cached := cache.lookup("u1")
	assert.False(t, cached)
	_, pushed := sink.get("u1")
	assert.False(t, pushed)
}

func TestVoidLastClockRestoresPreviousState(t *testing.T) {
	admin, repo, _, _ := newAdminFixture(store.User{
		ID:          "u1",
		ClockEvents: events(1000, true, 5000, false, 6000, true),
		InNow:       boolPtr(true),
	})

	require.NoError(t, admin.VoidLastClock(context.Background(), "u1"))

	u := repo.get("u1")
	assert.Equal(t, events(1000, true, 5000, false), u.ClockEvents)
	assert.False(t, *u.InNow)
	assert.Equal(t, int64(5000), *u.LastEvent)
}

func TestVoidLastClockIllegalStates(t *testing.T) {
	admin, _, _, _ := newAdminFixture(
		store.User{ID: "out", ClockEvents: events(1000, true, 2000, false)},
		store.User{ID: "empty"},
	)
	ctx := context.Background()

	assert.ErrorIs(t, admin.VoidLastClock(ctx, "ghost"), ErrUserNotFound)
	assert.ErrorIs(t, admin.VoidLastClock(ctx, "out"), ErrAlreadyClockedInOrOut)
	assert.ErrorIs(t, admin.VoidLastClock(ctx, "empty"), ErrNeverClockedIn)
}

func TestResetAllHours(t *testing.T) {
	admin, repo, cache, sink := newAdminFixture(
		store.User{ID: "a", ClockEvents: events(1000, true, 2000, false)},
		store.User{ID: "b", ClockEvents: events(1000, true), InNow: boolPtr(true)},
	)
	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, "a", 1000))
	require.NoError(t, cache.Put(ctx, "orphan", 5))

	require.NoError(t, admin.ResetAllHours(ctx))

	for _, id := range []string{"a", "b"} {
		u := repo.get(id)
		assert.Empty(t, u.ClockEvents)
		assert.False(t, *u.InNow)
		assert.Nil(t, u.LastEvent)
		hours, ok := sink.get(id)
		assert.True(t, ok)
		assert.Zero(t, hours)
	}
	_, ok := cache.lookup("a")
	assert.False(t, ok)
	_, ok = cache.lookup("orphan")
	assert.False(t, ok)
}

func TestEditUser(t *testing.T) {
	admin, repo, cache, _ := newAdminFixture(
		store.User{ID: "u1", Name: "Ada", Email: "ada@example.com", ClockEvents: events(1000, true)},
		store.User{ID: "u2", Name: "Bob"},
	)
	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, "u1", 42))

	saved, err := admin.EditUser(ctx, "u1", UserChanges{Name: strPtr("Ada L.")})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", saved.Name)
	assert.Equal(t, "ada@example.com", saved.Email)

	_, err = admin.EditUser(ctx, "u1", UserChanges{ID: strPtr("u2")})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = admin.EditUser(ctx, "ghost", UserChanges{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrNoSuchUser)

	saved, err = admin.EditUser(ctx, "u1", UserChanges{ID: strPtr("u9")})
	require.NoError(t, err)
	assert.Equal(t, "u9", saved.ID)
	exists, _ := repo.ExistsByID(ctx, "u1")
	assert.False(t, exists)
	assert.Equal(t, events(1000, true), repo.get("u9").ClockEvents)
	_, ok := cache.lookup("u1")
	assert.False(t, ok)
}

func TestEditUserSameID(t *testing.T) {
	admin, repo, _, _ := newAdminFixture(store.User{ID: "u1", Name: "Ada"})

	_, err := admin.EditUser(context.Background(), "u1", UserChanges{ID: strPtr("u1"), Email: strPtr("a@b.c")})
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", repo.get("u1").Email)
}

func TestAddAndRemoveUser(t *testing.T) {
	admin, repo, _, _ := newAdminFixture()
	ctx := context.Background()

	u, err := admin.AddUser(ctx, "u1", "Ada", "ada@example.com")
	require.NoError(t, err)
	assert.False(t, CurrentlyIn(*u))

	_, err = admin.AddUser(ctx, "u1", "Ada", "")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	require.NoError(t, admin.RemoveUser(ctx, "u1"))
	assert.ErrorIs(t, admin.RemoveUser(ctx, "u1"), ErrNoSuchUser)
	exists, _ := repo.ExistsByID(ctx, "u1")
	assert.False(t, exists)
}

func TestAllUsersUsesCache(t *testing.T) {
	admin, _, cache, _ := newAdminFixture(
		store.User{ID: "a", Name: "Ada", ClockEvents: events(1000, true, 5000, false)},
		store.User{ID: "b", Name: "Bob", ClockEvents: events(1000, true)},
	)
	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, "a", 123))

	summaries, err := admin.AllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, int64(123), summaries[0].TimeIn)
	assert.False(t, summaries[0].ClockedIn)
	assert.Equal(t, "5000", summaries[0].LastEventTime)

	assert.Equal(t, int64(0), summaries[1].TimeIn)
	assert.True(t, summaries[1].ClockedIn)
	// Cache miss recomputes and fills the entry.
	total, ok := cache.lookup("b")
	assert.True(t, ok)
	assert.Zero(t, total)
}

func TestUserHistory(t *testing.T) {
	admin, _, _, _ := newAdminFixture(store.User{ID: "a", ClockEvents: events(5000, false, 1000, true)})

	history, err := admin.UserHistory(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, events(1000, true, 5000, false), history)

	_, err = admin.UserHistory(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNoSuchUser)
}
