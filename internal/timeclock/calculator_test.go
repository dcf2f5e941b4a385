package timeclock

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jw6ventures/punchclock/internal/store"
)

func TestComputeTotalMs(t *testing.T) {
	tests := []struct {
		name   string
		events []store.ClockEvent
		want   int64
	}{
		{name: "no events", events: nil, want: 0},
		{name: "single clock-in", events: events(1000, true), want: 0},
		{name: "single clock-out", events: events(1000, false), want: 0},
		{name: "one pair", events: events(1000, true, 5000, false), want: 4000},
		{name: "trailing open interval", events: events(1000, true, 5000, false, 6000, true), want: 4000},
		{name: "two pairs", events: events(1000, true, 5000, false, 6000, true, 9000, false), want: 7000},
		{name: "duplicate clock-in keeps earliest", events: events(1000, true, 2000, true, 5000, false), want: 4000},
		{name: "duplicate clock-out adopts later", events: events(1000, true, 3000, false, 4000, false, 6000, true, 7000, false), want: 3000},
		{name: "leading clock-outs skipped", events: events(500, false, 800, false, 1000, true, 2000, false), want: 1000},
		{name: "only clock-outs", events: events(500, false, 800, false), want: 0},
		{name: "unsorted input", events: events(5000, false, 1000, true), want: 4000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeTotalMs(tt.events, nil))
		})
	}
}

func TestComputeTotalMsReportsDuplicates(t *testing.T) {
	var dups []store.ClockEvent
	total := ComputeTotalMs(events(1000, true, 2000, true, 5000, false, 6000, false), func(ev store.ClockEvent) {
		dups = append(dups, ev)
	})

	assert.Equal(t, int64(4000), total)
	assert.Equal(t, events(2000, true, 6000, false), dups)
}

func TestComputeTotalMsIsIdempotent(t *testing.T) {
	history := events(1000, true, 5000, false, 6000, true, 9000, false)
	first := ComputeTotalMs(history, nil)
	second := ComputeTotalMs(history, nil)
	assert.Equal(t, first, second)
	assert.Equal(t, events(1000, true, 5000, false, 6000, true, 9000, false), history)
}

func TestCurrentlyIn(t *testing.T) {
	assert.False(t, CurrentlyIn(store.User{}))
	assert.True(t, CurrentlyIn(store.User{ClockEvents: events(1000, true)}))
	assert.False(t, CurrentlyIn(store.User{ClockEvents: events(1000, true, 2000, false)}))
	// The stored flag wins over the history.
	assert.False(t, CurrentlyIn(store.User{ClockEvents: events(1000, true), InNow: boolPtr(false)}))
	assert.True(t, CurrentlyIn(store.User{InNow: boolPtr(true)}))
}

func TestIsUserLoggedIn(t *testing.T) {
	assert.False(t, IsUserLoggedIn(store.User{}))
	assert.True(t, IsUserLoggedIn(store.User{ClockEvents: events(2000, true, 1000, false)}))
	assert.False(t, IsUserLoggedIn(store.User{ClockEvents: events(1000, true, 2000, false), InNow: boolPtr(true)}))
}
