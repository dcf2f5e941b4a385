package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jw6ventures/punchclock/internal/analytics"
	"github.com/jw6ventures/punchclock/internal/cache"
	"github.com/jw6ventures/punchclock/internal/config"
	httpserver "github.com/jw6ventures/punchclock/internal/http"
	"github.com/jw6ventures/punchclock/internal/mail"
	"github.com/jw6ventures/punchclock/internal/queue"
	"github.com/jw6ventures/punchclock/internal/sheets"
	"github.com/jw6ventures/punchclock/internal/store"
	"github.com/jw6ventures/punchclock/internal/timeclock"
)

// buildCache picks Redis when configured and the Postgres table otherwise.
func buildCache(ctx context.Context, cfg *config.Config, stor *store.Store) (store.HoursCache, func(), *httpserver.HealthCheck, error) {
	if cfg.RedisURL == "" {
		return stor.HoursCache, func() {}, nil, nil
	}
	client, err := cache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	rc := cache.NewRedis(client, cache.DefaultKey)
	return rc, func() { _ = client.Close() }, &httpserver.HealthCheck{Name: "redis", Check: rc.HealthCheck}, nil
}

// buildSheets returns the spreadsheet sink and display, or logging stand-ins
// when no service account is configured.
func buildSheets(ctx context.Context, cfg *config.Config, logger *zap.Logger) (timeclock.HourSink, timeclock.LoggedInDisplay, *httpserver.HealthCheck, error) {
	if !cfg.SheetsEnabled() {
		logger.Warn("google sheets not configured; hours will only be logged")
		offline := sheets.NewOffline(logger)
		return offline, offline, nil, nil
	}

	srv, err := sheets.NewService(ctx, cfg.Sheets.ServiceFile, cfg.Sheets.AppName)
	if err != nil {
		return nil, nil, nil, err
	}
	sc := sheets.Config{
		SheetID:        cfg.Sheets.SheetID,
		NameRange:      cfg.Sheets.NameRange,
		HoursColumn:    cfg.Sheets.HoursColumn,
		HoursRowOffset: cfg.Sheets.HoursRowOffset,
		LoggedInSheet:  cfg.Sheets.LoggedInSheet,
	}
	sink := sheets.NewHoursSink(srv, sc, logger)
	if err := sink.Probe(ctx); err != nil {
		logger.Warn("could not read names from spreadsheet", zap.Error(err))
	}

	var display timeclock.LoggedInDisplay
	if sc.LoggedInSheet != "" {
		display = sheets.NewDisplay(srv, sc, logger)
	}
	return sink, display, &httpserver.HealthCheck{Name: "sheets", Check: sink.HealthCheck}, nil
}

func buildMailer(cfg *config.Config, logger *zap.Logger) (timeclock.Mailer, error) {
	if !cfg.SMTPEnabled() {
		logger.Warn("smtp not configured; notification email will only be logged")
		return mail.NewOffline(logger), nil
	}
	return mail.NewSMTP(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.Email.From,
		ReplyTo:  cfg.Email.ReplyTo,
	}, logger)
}

func buildAnalytics(cfg *config.Config, stor *store.Store, logger *zap.Logger) (*analytics.Recorder, error) {
	backends := []analytics.Backend{analytics.NewStore(stor.Analytics)}
	if cfg.PostHog.Key != "" {
		ph, err := analytics.NewPostHog(cfg.PostHog.Key, cfg.PostHog.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("posthog: %w", err)
		}
		backends = append(backends, ph)
	}
	return analytics.NewRecorder(logger, backends...), nil
}

// buildDispatcher runs background jobs through asynq when Redis is
// configured and through the in-process worker pool otherwise.
func buildDispatcher(ctx context.Context, cfg *config.Config, jobs *timeclock.Jobs, logger *zap.Logger) (timeclock.Dispatcher, func(), error) {
	if cfg.RedisURL == "" {
		pool := timeclock.NewWorkerPool(jobs, cfg.Recompute.Workers, cfg.Recompute.QueueSize, cfg.Recompute.JobTimeout, logger)
		pool.Start(ctx)
		return pool, func() {
			if err := pool.Close(); err != nil {
				logger.Warn("worker pool shutdown failed", zap.Error(err))
			}
		}, nil
	}

	client, err := queue.NewClient(cfg.RedisURL, queue.DefaultQueue, cfg.Recompute.JobTimeout)
	if err != nil {
		return nil, nil, err
	}
	srv, err := queue.NewServer(cfg.RedisURL, queue.DefaultQueue, cfg.Recompute.Workers, logger)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	handler := queue.NewHandler(jobs,
		queue.WithTaskTimeout(cfg.Recompute.JobTimeout),
		queue.WithLogger(logger))
	if err := srv.Start(handler); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return client, func() {
		srv.Shutdown()
		if err := client.Close(); err != nil {
			logger.Warn("queue client shutdown failed", zap.Error(err))
		}
	}, nil
}
