package config

import (
	"testing"
	"time"
)

func setBase(t *testing.T) {
	t.Helper()
	for _, k := range []string{"HTTP_ADDR", "LOG_LEVEL", "ENV", "SENTRY_DSN", "RELEASE", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "STATS_INTERVAL"} {
		t.Setenv(k, "")
	}
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("TZ", "Europe/Moscow")
}

func TestLoad_Defaults(t *testing.T) {
	setBase(t)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.LogLevel != "info" || cfg.Env != "dev" {
		t.Fatalf("неожиданные значения по умолчанию: %+v", cfg)
	}
	if cfg.StatsInterval != time.Minute {
		t.Fatalf("ожидали 1m, получили %s", cfg.StatsInterval)
	}
	if cfg.Location.String() != "Europe/Moscow" {
		t.Fatalf("ожидали Europe/Moscow, получили %s", cfg.Location)
	}
	if cfg.NotificationsEnabled() {
		t.Fatal("без токена уведомления должны быть выключены")
	}
}

func TestLoad_Telegram(t *testing.T) {
	setBase(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.NotificationsEnabled() || cfg.ChatID != -100123 {
		t.Fatalf("ожидали chat -100123, получили %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"нет DATABASE_URL":  {"DATABASE_URL": ""},
		"плохой TZ":         {"TZ": "Mars/Olympus"},
		"плохой chat id":    {"TELEGRAM_CHAT_ID": "abc"},
		"токен без chat id": {"TELEGRAM_BOT_TOKEN": "123:abc"},
		"плохой интервал":   {"STATS_INTERVAL": "soon"},
		"нулевой интервал":  {"STATS_INTERVAL": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setBase(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("ожидали ошибку")
			}
		})
	}
}
