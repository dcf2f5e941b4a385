package sheets

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"

	"github.com/jw6ventures/punchclock/internal/store"
	"github.com/jw6ventures/punchclock/internal/timeclock"
)

// HoursSink writes hour totals next to the user's name.
type HoursSink struct {
	api    valuesAPI
	cfg    Config
	logger *zap.Logger
}

var _ timeclock.HourSink = (*HoursSink)(nil)

func NewHoursSink(srv *sheets.Service, cfg Config, logger *zap.Logger) *HoursSink {
	return &HoursSink{api: apiValues{srv: srv}, cfg: cfg, logger: logger}
}

// SetHours writes hours into every row whose name matches the user's. A
// user missing from the sheet is logged, not an error.
func (s *HoursSink) SetHours(ctx context.Context, user store.User, hours float64) error {
	names, err := s.names(ctx)
	if err != nil {
		return err
	}

	found := false
	for i, name := range names {
		if name != user.Name {
			continue
		}
		found = true
		rng := s.cfg.HoursColumn + strconv.Itoa(i+s.cfg.HoursRowOffset)
		if err := s.api.update(ctx, s.cfg.SheetID, rng, [][]any{{hours}}); err != nil {
			return fmt.Errorf("update hours at %s: %w", rng, err)
		}
	}
	if !found {
		s.logger.Warn("user not found on spreadsheet", zap.String("user", user.ID), zap.String("name", user.Name))
		return nil
	}
	s.logger.Debug("spreadsheet hours updated", zap.String("user", user.ID), zap.Float64("hours", hours))
	return nil
}

func (s *HoursSink) names(ctx context.Context) ([]string, error) {
	cols, err := s.api.columns(ctx, s.cfg.SheetID, s.cfg.NameRange)
	if err != nil {
		return nil, fmt.Errorf("read names from %s: %w", s.cfg.NameRange, err)
	}
	if len(cols) == 0 {
		return nil, nil
	}
	names := make([]string, len(cols[0]))
	for i, v := range cols[0] {
		names[i] = fmt.Sprint(v)
	}
	return names, nil
}

// Probe checks that the name range is readable and warns when it is empty.
func (s *HoursSink) Probe(ctx context.Context) error {
	names, err := s.names(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		s.logger.Warn("found no names in the configured column; check the sheet id and name range",
			zap.String("range", s.cfg.NameRange))
	}
	return nil
}

// HealthCheck fetches the spreadsheet's metadata.
func (s *HoursSink) HealthCheck(ctx context.Context) error {
	id, err := s.api.spreadsheetID(ctx, s.cfg.SheetID)
	if err != nil {
		return fmt.Errorf("fetch spreadsheet %s: %w", s.cfg.SheetID, err)
	}
	if id != s.cfg.SheetID {
		return fmt.Errorf("spreadsheet id mismatch: got %q", id)
	}
	return nil
}
