package analytics

import (
	"context"
	"time"

	"github.com/posthog/posthog-go"
)

type postHog struct {
	client posthog.Client
}

// NewPostHog forwards events to PostHog. An empty endpoint uses the
// client's default.
func NewPostHog(apiKey, endpoint string) (Backend, error) {
	client, err := posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
	if err != nil {
		return nil, err
	}
	return &postHog{client: client}, nil
}

func (p *postHog) Send(_ context.Context, event Event) error {
	capture := posthog.Capture{
		DistinctId: event.User,
		Event:      event.Description,
		Timestamp:  time.UnixMilli(event.Timestamp),
		Properties: posthog.NewProperties().Set("event_id", event.ID),
	}
	if err := capture.Validate(); err != nil {
		return err
	}
	return p.client.Enqueue(capture)
}

func (p *postHog) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
