package sheets

import (
	"context"

	"go.uber.org/zap"

	"github.com/jw6ventures/punchclock/internal/store"
	"github.com/jw6ventures/punchclock/internal/timeclock"
)

// Offline stands in for the spreadsheet when none is configured. It logs
// what would have been written.
type Offline struct {
	logger *zap.Logger
}

var (
	_ timeclock.HourSink        = (*Offline)(nil)
	_ timeclock.LoggedInDisplay = (*Offline)(nil)
)

func NewOffline(logger *zap.Logger) *Offline {
	return &Offline{logger: logger}
}

func (o *Offline) SetHours(_ context.Context, user store.User, hours float64) error {
	o.logger.Info("offline mode: hour count not published",
		zap.String("user", user.ID),
		zap.Float64("hours", hours))
	return nil
}

func (o *Offline) ShowLoggedIn(_ context.Context, users []store.User) error {
	count := 0
	for _, u := range users {
		if timeclock.IsUserLoggedIn(u) {
			count++
		}
	}
	o.logger.Debug("offline mode: logged-in display not published", zap.Int("logged_in", count))
	return nil
}
