package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the process configuration read from the environment
type Config struct {
	DBType               string
	DBPath               string
	DatabaseURL          string
	LogMode              string
	TelegramToken        string
	AdminUserIDs         map[int64]bool
	SchedulerEnabled     bool
	BacklogCheckInterval time.Duration
	Engine               string
	DefaultTimezone      string
	DefaultDailyCapacity int
	PreviewTimeout       time.Duration
	BatchConcurrency     int
}

// Default returns the configuration used when no variables are set
func Default() *Config {
	return &Config{
		DBType:               "sqlite",
		DBPath:               "data/studyplan.db",
		LogMode:              "dev",
		AdminUserIDs:         make(map[int64]bool),
		SchedulerEnabled:     true,
		BacklogCheckInterval: time.Hour,
		Engine:               "fsrs",
		DefaultTimezone:      "UTC",
		DefaultDailyCapacity: 20,
		PreviewTimeout:       5 * time.Second,
		BatchConcurrency:     8,
	}
}

// Load reads .env (if present) and then the process environment
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Default()

	if v := getenv("DB_TYPE"); v != "" {
		v = strings.ToLower(v)
		if v != "sqlite" && v != "postgres" {
			return nil, fmt.Errorf("DB_TYPE must be sqlite or postgres, got %q", v)
		}
		cfg.DBType = v
	}
	if v := getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	cfg.DatabaseURL = getenv("DATABASE_URL")
	if cfg.DBType == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when DB_TYPE=postgres")
	}
	if v := getenv("LOG_MODE"); v != "" {
		cfg.LogMode = v
	}
	cfg.TelegramToken = getenv("TELEGRAM_BOT_TOKEN")

	if v := getenv("ADMIN_USER_IDS"); v != "" {
		for _, idStr := range strings.Split(v, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid admin user ID %q: %w", idStr, err)
			}
			cfg.AdminUserIDs[id] = true
		}
	}

	cfg.SchedulerEnabled = getenv("ENABLE_SCHEDULER") != "false"

	if v := getenv("BACKLOG_CHECK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid BACKLOG_CHECK_INTERVAL %q", v)
		}
		cfg.BacklogCheckInterval = d
	}
	if v := getenv("SCHEDULING_ENGINE"); v != "" {
		v = strings.ToLower(v)
		if v != "fsrs" && v != "sm2" {
			return nil, fmt.Errorf("SCHEDULING_ENGINE must be fsrs or sm2, got %q", v)
		}
		cfg.Engine = v
	}
	if v := getenv("DEFAULT_TIMEZONE"); v != "" {
		if _, err := time.LoadLocation(v); err != nil {
			return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", v, err)
		}
		cfg.DefaultTimezone = v
	}
	if v := getenv("DEFAULT_DAILY_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid DEFAULT_DAILY_CAPACITY %q", v)
		}
		cfg.DefaultDailyCapacity = n
	}
	if v := getenv("PREVIEW_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid PREVIEW_TIMEOUT %q", v)
		}
		cfg.PreviewTimeout = d
	}
	if v := getenv("BATCH_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid BATCH_CONCURRENCY %q", v)
		}
		cfg.BatchConcurrency = n
	}

	return cfg, nil
}

// BotEnabled reports whether a Telegram token was configured
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}
