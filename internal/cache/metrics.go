package cache

import (
	"context"
	"time"

	"github.com/jw6ventures/punchclock/internal/metrics"
)

func observe(ctx context.Context, operation string) func() {
	start := time.Now()
	return func() {
		metrics.ObserveDBLatency(ctx, operation, start)
	}
}
