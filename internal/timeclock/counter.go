package timeclock

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jw6ventures/punchclock/internal/metrics"
	"github.com/jw6ventures/punchclock/internal/store"
)

// HoursCounter computes accumulated time and keeps the hours cache current.
type HoursCounter struct {
	cache   store.HoursCache
	observe func(trigger string, start time.Time)
	logger  *zap.Logger
}

const (
	triggerClockOut  = "clock_out"
	triggerCacheMiss = "cache_miss"
)

func NewHoursCounter(cache store.HoursCache, logger *zap.Logger) *HoursCounter {
	return &HoursCounter{cache: cache, observe: metrics.ObserveRecompute, logger: logger}
}

// TotalMs recomputes the user's total after a clock-out and overwrites the
// cache entry. A cache write failure is logged and does not affect the
// result.
func (c *HoursCounter) TotalMs(ctx context.Context, user store.User) int64 {
	return c.compute(ctx, user, triggerClockOut)
}

func (c *HoursCounter) compute(ctx context.Context, user store.User, trigger string) int64 {
	defer c.observe(trigger, time.Now())

	total := ComputeTotalMs(user.ClockEvents, func(ev store.ClockEvent) {
		c.logger.Warn("duplicate clock event",
			zap.String("user", user.ID),
			zap.Int64("timestamp", ev.Timestamp),
			zap.Bool("clocking_in", ev.ClockingIn))
	})
	if err := c.cache.Put(ctx, user.ID, total); err != nil {
		c.logger.Error("failed to update hours cache", zap.String("user", user.ID), zap.Error(err))
	}
	return total
}

// CachedTotalMs returns the cached total when one exists and recomputes
// otherwise.
func (c *HoursCounter) CachedTotalMs(ctx context.Context, user store.User) int64 {
	total, ok, err := c.cache.Get(ctx, user.ID)
	if err != nil {
		c.logger.Warn("hours cache read failed", zap.String("user", user.ID), zap.Error(err))
	}
	if err == nil && ok {
		return total
	}
	return c.compute(ctx, user, triggerCacheMiss)
}
