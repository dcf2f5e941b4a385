package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	DB struct {
		DSN string
	}

	// RedisURL enables the Redis hours cache and the asynq recompute queue.
	RedisURL string

	Admin struct {
		Password string
	}

	// SecureTimesheet requires the TIMESHEET role for /timesheet routes.
	SecureTimesheet bool

	Sheets struct {
		ServiceFile    string
		AppName        string
		SheetID        string
		NameRange      string
		HoursColumn    string
		HoursRowOffset int
		LoggedInSheet  string
	}

	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
	}

	Email struct {
		From    string
		ReplyTo string
	}

	AutoLogout struct {
		Enabled  bool
		Schedule string
	}

	PostHog struct {
		Key      string
		Endpoint string
	}

	Recompute struct {
		Workers    int
		QueueSize  int
		JobTimeout time.Duration
	}

	PrometheusEnabled bool
	TrustedProxies    []string
}

// SheetsEnabled reports whether enough is configured to talk to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.Sheets.ServiceFile != "" && c.Sheets.SheetID != ""
}

// SMTPEnabled reports whether outbound mail is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Host != ""
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getenvDefault("APP_LISTEN_ADDR", ":8080")
	cfg.LogLevel = getenvDefault("APP_LOG_LEVEL", "info")
	cfg.DB.DSN = os.Getenv("APP_DB_DSN")

	if cfg.DB.DSN == "" {
		host := os.Getenv("APP_DB_HOST")
		name := os.Getenv("APP_DB_NAME")
		user := os.Getenv("APP_DB_USER")
		password := os.Getenv("APP_DB_PASSWORD")
		port := getenvDefault("APP_DB_PORT", "5432")
		sslmode := getenvDefault("APP_DB_SSLMODE", "disable")

		if host != "" && name != "" && user != "" && password != "" {
			cfg.DB.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)
		}
	}

	cfg.RedisURL = os.Getenv("APP_REDIS_URL")
	cfg.Admin.Password = os.Getenv("APP_ADMIN_PASSWORD")
	cfg.SecureTimesheet = getenvBool("APP_SECURE_TIMESHEET", false)

	cfg.Sheets.ServiceFile = os.Getenv("APP_SHEETS_SERVICE_FILE")
	cfg.Sheets.AppName = getenvDefault("APP_SHEETS_APP_NAME", "punchclock")
	cfg.Sheets.SheetID = os.Getenv("APP_SHEETS_SHEET_ID")
	cfg.Sheets.NameRange = getenvDefault("APP_SHEETS_NAME_RANGE", "Hours!A2:A")
	cfg.Sheets.HoursColumn = getenvDefault("APP_SHEETS_HOURS_COLUMN", "Hours!B")
	cfg.Sheets.LoggedInSheet = os.Getenv("APP_SHEETS_LOGGED_IN_SHEET")

	cfg.SMTP.Host = os.Getenv("APP_SMTP_HOST")
	cfg.SMTP.Username = os.Getenv("APP_SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("APP_SMTP_PASSWORD")
	cfg.Email.From = getenvDefault("APP_EMAIL_FROM", `"CLUCK" <cluck@example.com>`)
	cfg.Email.ReplyTo = getenvDefault("APP_EMAIL_REPLY_TO", "cluck@example.com")

	cfg.AutoLogout.Enabled = getenvBool("APP_AUTOLOGOUT_ENABLED", true)
	cfg.AutoLogout.Schedule = getenvDefault("APP_AUTOLOGOUT_SCHEDULE", "59 59 23 * * *")

	cfg.PostHog.Key = os.Getenv("APP_POSTHOG_KEY")
	cfg.PostHog.Endpoint = os.Getenv("APP_POSTHOG_ENDPOINT")

	cfg.PrometheusEnabled = getenvBool("APP_PROMETHEUS_ENDPOINT_ENABLED", false)
	cfg.TrustedProxies = getenvList("APP_TRUSTED_PROXIES")

	var err error
	if cfg.Sheets.HoursRowOffset, err = getenvInt("APP_SHEETS_HOURS_ROW_OFFSET", 2); err != nil {
		return nil, err
	}
	if cfg.SMTP.Port, err = getenvInt("APP_SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.Recompute.Workers, err = getenvInt("APP_RECOMPUTE_WORKERS", 2); err != nil {
		return nil, err
	}
	if cfg.Recompute.QueueSize, err = getenvInt("APP_RECOMPUTE_QUEUE", 500); err != nil {
		return nil, err
	}
	if cfg.Recompute.JobTimeout, err = getenvDuration("APP_RECOMPUTE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.DB.DSN == "" {
		return nil, errors.New("APP_DB_DSN is required (or set APP_DB_HOST, APP_DB_NAME, APP_DB_USER, and APP_DB_PASSWORD)")
	}
	if cfg.Admin.Password == "" {
		return nil, errors.New("APP_ADMIN_PASSWORD is required")
	}
	if cfg.Recompute.Workers < 1 {
		return nil, fmt.Errorf("APP_RECOMPUTE_WORKERS must be at least 1 (got %d)", cfg.Recompute.Workers)
	}
	if cfg.Recompute.QueueSize < 1 {
		return nil, fmt.Errorf("APP_RECOMPUTE_QUEUE must be at least 1 (got %d)", cfg.Recompute.QueueSize)
	}
	if cfg.Sheets.ServiceFile != "" && cfg.Sheets.SheetID == "" {
		return nil, errors.New("APP_SHEETS_SHEET_ID is required when APP_SHEETS_SERVICE_FILE is set")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func getenvList(key string) []string {
	if v := os.Getenv(key); v != "" {
		var result []string
		for _, item := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return nil
}
