package analytics

import (
	"context"

	"github.com/jw6ventures/punchclock/internal/store"
)

type storeBackend struct {
	repo store.AnalyticsRepository
}

// NewStore persists events in the database.
func NewStore(repo store.AnalyticsRepository) Backend {
	return &storeBackend{repo: repo}
}

func (s *storeBackend) Send(ctx context.Context, event Event) error {
	return s.repo.Insert(ctx, store.AnalyticsEvent{
		ID:          event.ID,
		Timestamp:   event.Timestamp,
		User:        event.User,
		Description: event.Description,
	})
}

func (s *storeBackend) Close() error { return nil }
