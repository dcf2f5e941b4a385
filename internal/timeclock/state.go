package timeclock

import "github.com/jw6ventures/punchclock/internal/store"

// lastEvent returns the newest event by timestamp. Ties resolve to the
// event stored last.
func lastEvent(user store.User) (store.ClockEvent, bool) {
	if len(user.ClockEvents) == 0 {
		return store.ClockEvent{}, false
	}
	sorted := store.SortedEvents(user.ClockEvents)
	return sorted[len(sorted)-1], true
}

// CurrentlyIn reports whether the user is clocked in. The stored flag wins;
// without it the latest event decides, and a user with no events is out.
func CurrentlyIn(user store.User) bool {
	if user.InNow != nil {
		return *user.InNow
	}
	ev, ok := lastEvent(user)
	return ok && ev.ClockingIn
}

// IsUserLoggedIn reports whether the user's latest event is a clock-in.
func IsUserLoggedIn(user store.User) bool {
	ev, ok := lastEvent(user)
	return ok && ev.ClockingIn
}

// withTail sets the denormalized flags from the user's event history.
func withTail(user store.User) store.User {
	ev, ok := lastEvent(user)
	if !ok {
		in := false
		user.InNow = &in
		user.LastEvent = nil
		return user
	}
	in, ts := ev.ClockingIn, ev.Timestamp
	user.InNow = &in
	user.LastEvent = &ts
	return user
}

func boolPtr(v bool) *bool { return &v }
