package timeclock

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jw6ventures/punchclock/internal/store"
)

// LoggedIn is a read-only view of who is clocked in.
type LoggedIn struct {
	users store.UserRepository
}

func NewLoggedIn(users store.UserRepository) *LoggedIn {
	return &LoggedIn{users: users}
}

// LoggedInUsers maps the display name of every clocked-in user to the
// timestamp of their latest event, in epoch milliseconds.
func (l *LoggedIn) LoggedInUsers(ctx context.Context) (map[string]string, error) {
	users, err := l.users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	result := make(map[string]string)
	for _, user := range users {
		ev, ok := lastEvent(user)
		if !ok || !ev.ClockingIn {
			continue
		}
		result[user.Name] = strconv.FormatInt(ev.Timestamp, 10)
	}
	return result, nil
}

// IsUserLoggedIn reports whether the user's latest event is a clock-in.
func (l *LoggedIn) IsUserLoggedIn(user store.User) bool {
	return IsUserLoggedIn(user)
}
