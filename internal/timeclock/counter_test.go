package timeclock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jw6ventures/punchclock/internal/store"
)

func TestTotalMsOverwritesCache(t *testing.T) {
	cache := newFakeCache()
	counter := NewHoursCounter(cache, zap.NewNop())
	ctx := context.Background()
	_ = cache.Put(ctx, "u1", 999)

	total := counter.TotalMs(ctx, store.User{ID: "u1", ClockEvents: events(1000, true, 5000, false)})
	assert.Equal(t, int64(4000), total)
	v, _ := cache.lookup("u1")
	assert.Equal(t, int64(4000), v)
}

func TestTotalMsLogsDuplicatesAndCacheFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cache := newFakeCache()
	cache.putErr = errors.New("cache down")
	counter := NewHoursCounter(cache, zap.New(core))

	total := counter.TotalMs(context.Background(), store.User{ID: "u1", ClockEvents: events(1000, true, 2000, true, 5000, false)})
	assert.Equal(t, int64(4000), total)
	assert.Equal(t, 1, logs.FilterMessage("duplicate clock event").Len())
	assert.Equal(t, 1, logs.FilterMessage("failed to update hours cache").Len())
}

func TestCachedTotalMs(t *testing.T) {
	cache := newFakeCache()
	counter := NewHoursCounter(cache, zap.NewNop())
	ctx := context.Background()
	user := store.User{ID: "u1", ClockEvents: events(1000, true, 5000, false)}

	_ = cache.Put(ctx, "u1", 7)
	assert.Equal(t, int64(7), counter.CachedTotalMs(ctx, user))

	_ = cache.Delete(ctx, "u1")
	assert.Equal(t, int64(4000), counter.CachedTotalMs(ctx, user))

	cache.getErr = errors.New("boom")
	assert.Equal(t, int64(4000), counter.CachedTotalMs(ctx, user))
}

func TestRecomputeTriggers(t *testing.T) {
	cache := newFakeCache()
	counter := NewHoursCounter(cache, zap.NewNop())
	var triggers []string
	counter.observe = func(trigger string, _ time.Time) { triggers = append(triggers, trigger) }
	ctx := context.Background()
	user := store.User{ID: "u1", ClockEvents: events(1000, true, 5000, false)}

	counter.TotalMs(ctx, user)
	counter.CachedTotalMs(ctx, user)
	_ = cache.Delete(ctx, "u1")
	counter.CachedTotalMs(ctx, user)

	assert.Equal(t, []string{"clock_out", "cache_miss"}, triggers)
}
