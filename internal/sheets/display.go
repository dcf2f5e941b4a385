package sheets

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"

	"github.com/jw6ventures/punchclock/internal/store"
	"github.com/jw6ventures/punchclock/internal/timeclock"
)

const shortTime = "3:04 PM"

// Display writes the logged-in list to its own tab. Every user gets a row
// so that users who clocked out are blanked.
type Display struct {
	api    valuesAPI
	cfg    Config
	loc    *time.Location
	logger *zap.Logger
}

var _ timeclock.LoggedInDisplay = (*Display)(nil)

func NewDisplay(srv *sheets.Service, cfg Config, logger *zap.Logger) *Display {
	return &Display{api: apiValues{srv: srv}, cfg: cfg, loc: time.Local, logger: logger}
}

func (d *Display) ShowLoggedIn(ctx context.Context, users []store.User) error {
	rows := DisplayRows(users, d.loc)
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = []any{row[0], row[1]}
	}

	rng := fmt.Sprintf("'%s'!A2", d.cfg.LoggedInSheet)
	if err := d.api.update(ctx, d.cfg.SheetID, rng, values); err != nil {
		return fmt.Errorf("update logged-in display: %w", err)
	}
	d.logger.Debug("updated logged-in display", zap.Int("rows", len(values)))
	return nil
}

// DisplayRows orders users for the logged-in tab: clocked-in users first,
// sorted by name ignoring case, each with the time they clocked in. Every
// other user becomes a blank row at the end.
func DisplayRows(users []store.User, loc *time.Location) [][2]string {
	rows := make([][2]string, 0, len(users))
	blanks := 0
	for _, user := range users {
		if !timeclock.IsUserLoggedIn(user) {
			blanks++
			continue
		}
		ts := user.ClockEvents[0].Timestamp
		for _, ev := range user.ClockEvents {
			ts = max(ts, ev.Timestamp)
		}
		if user.LastEvent != nil {
			ts = *user.LastEvent
		}
		rows = append(rows, [2]string{user.Name, time.UnixMilli(ts).In(loc).Format(shortTime)})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i][0]) < strings.ToLower(rows[j][0])
	})
	for i := 0; i < blanks; i++ {
		rows = append(rows, [2]string{"", ""})
	}
	return rows
}
