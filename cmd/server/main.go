package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jw6ventures/punchclock/internal/auth"
	"github.com/jw6ventures/punchclock/internal/config"
	httpserver "github.com/jw6ventures/punchclock/internal/http"
	"github.com/jw6ventures/punchclock/internal/logging"
	"github.com/jw6ventures/punchclock/internal/scheduler"
	"github.com/jw6ventures/punchclock/internal/store"
	"github.com/jw6ventures/punchclock/internal/timeclock"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting punchclock server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("failed to create db pool", zap.Error(err))
	}
	defer pool.Close()

	stor := store.New(pool)
	if err := stor.Migrate(ctx); err != nil {
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}

	authService := auth.NewService(stor.Credentials, logger.Named("auth"))
	if err := authService.EnsureAdmin(ctx, cfg.Admin.Password); err != nil {
		logger.Fatal("failed to bootstrap admin credential", zap.Error(err))
	}

	checks := []httpserver.HealthCheck{{Name: "db", Check: stor.HealthCheck}}

	hoursCache, closeCache, check, err := buildCache(ctx, cfg, stor)
	if err != nil {
		logger.Fatal("failed to connect hours cache", zap.Error(err))
	}
	defer closeCache()
	if check != nil {
		checks = append(checks, *check)
	}

	sink, display, check, err := buildSheets(ctx, cfg, logger.Named("sheets"))
	if err != nil {
		logger.Fatal("failed to initialize spreadsheet sink", zap.Error(err))
	}
	if check != nil {
		checks = append(checks, *check)
	}

	mailer, err := buildMailer(cfg, logger.Named("mail"))
	if err != nil {
		logger.Fatal("failed to initialize mailer", zap.Error(err))
	}

	recorder, err := buildAnalytics(cfg, stor, logger.Named("analytics"))
	if err != nil {
		logger.Fatal("failed to initialize analytics", zap.Error(err))
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Warn("analytics shutdown failed", zap.Error(err))
		}
	}()

	locks := timeclock.NewKeyedMutex()
	counter := timeclock.NewHoursCounter(hoursCache, logger.Named("hours"))
	jobs := timeclock.NewJobs(stor.Users, counter, sink, display, logger.Named("jobs"))

	dispatcher, closeDispatcher, err := buildDispatcher(ctx, cfg, jobs, logger.Named("dispatch"))
	if err != nil {
		logger.Fatal("failed to start background dispatcher", zap.Error(err))
	}
	defer closeDispatcher()

	tracker := timeclock.NewTracker(stor.Users, dispatcher, logger.Named("tracker"),
		timeclock.WithAnalytics(recorder),
		timeclock.WithLocks(locks))
	admin := timeclock.NewAdmin(stor.Users, hoursCache, counter, sink, locks, logger.Named("admin"))

	if cfg.AutoLogout.Enabled {
		sweeper := timeclock.NewSweeper(stor.Users, mailer, recorder, locks, logger.Named("sweep"))
		sched, err := scheduler.New(cfg.AutoLogout.Schedule, time.Local, sweeper, logger.Named("scheduler"))
		if err != nil {
			logger.Fatal("failed to schedule auto-logout", zap.Error(err))
		}
		sched.Start()
		logger.Info("auto-logout scheduled", zap.Time("next", sched.Next()))
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := sched.Stop(stopCtx); err != nil {
				logger.Warn("auto-logout sweep still running at shutdown", zap.Error(err))
			}
		}()
	}

	router := httpserver.NewRouter(httpserver.Deps{
		Config:      cfg,
		Logger:      logger.Named("http"),
		Clock:       tracker,
		Users:       stor.Users,
		LoggedIn:    timeclock.NewLoggedIn(stor.Users),
		Admin:       admin,
		Credentials: authService,
		Checks:      checks,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}
