package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL   string
	HTTPAddr      string
	LogLevel      string
	Env           string // dev|prod
	SentryDSN     string
	Release       string
	Location      *time.Location // границы месяцев ledger-а
	BotToken      string         // пусто — уведомления выключены
	ChatID        int64
	StatsInterval time.Duration
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Europe/Moscow")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("TZ %q: %w", tz, err)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, errors.New("required env DATABASE_URL is empty")
	}

	cfg := &Config{
		DatabaseURL: dsn,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Env:         getenv("ENV", "dev"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Release:     os.Getenv("RELEASE"),
		Location:    loc,
		BotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if s := os.Getenv("TELEGRAM_CHAT_ID"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.ChatID = id
	}
	if cfg.BotToken != "" && cfg.ChatID == 0 {
		return nil, errors.New("TELEGRAM_CHAT_ID is required with TELEGRAM_BOT_TOKEN")
	}

	cfg.StatsInterval, err = time.ParseDuration(getenv("STATS_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("STATS_INTERVAL: %w", err)
	}
	if cfg.StatsInterval <= 0 {
		return nil, fmt.Errorf("STATS_INTERVAL must be positive, got %s", cfg.StatsInterval)
	}
	return cfg, nil
}

func (c *Config) NotificationsEnabled() bool { return c.BotToken != "" }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
