package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jw6ventures/punchclock/internal/store"
)

type memoryBackend struct {
	mu     sync.Mutex
	events []Event
	err    error
	closed bool
}

func (m *memoryBackend) Send(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memoryBackend) Close() error {
	m.closed = true
	return nil
}

type memoryRepo struct {
	events []store.AnalyticsEvent
}

func (m *memoryRepo) Insert(_ context.Context, event store.AnalyticsEvent) error {
	m.events = append(m.events, event)
	return nil
}

func TestRecorderFansOut(t *testing.T) {
	first := &memoryBackend{}
	failing := &memoryBackend{err: errors.New("unreachable")}
	repo := &memoryRepo{}
	r := NewRecorder(zap.NewNop(), first, failing, NewStore(repo))

	r.RecordEvent(context.Background(), 1000, "u1", "clock_in")
	require.NoError(t, r.Close())

	require.Len(t, first.events, 1)
	ev := first.events[0]
	assert.Equal(t, int64(1000), ev.Timestamp)
	assert.Equal(t, "u1", ev.User)
	assert.Equal(t, "clock_in", ev.Description)
	_, err := uuid.Parse(ev.ID)
	assert.NoError(t, err)

	require.Len(t, repo.events, 1)
	assert.Equal(t, ev.ID, repo.events[0].ID)
	assert.True(t, first.closed)
}

func TestRecorderWithoutBackends(t *testing.T) {
	r := NewRecorder(zap.NewNop())
	r.RecordEvent(context.Background(), 1, "u", "x")
	assert.NoError(t, r.Close())
}

func TestRecorderSurvivesCancelledContext(t *testing.T) {
	b := &memoryBackend{}
	r := NewRecorder(zap.NewNop(), b)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r.RecordEvent(ctx, 1, "u", "clock_out")
	require.NoError(t, r.Close())
	assert.Len(t, b.events, 1)
}
