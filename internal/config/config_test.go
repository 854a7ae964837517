package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", " token ")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TelegramToken != "token" {
		t.Fatalf("TelegramToken = %q", cfg.TelegramToken)
	}
	if cfg.DatabaseURL != "peptide_bot.db" || cfg.ReminderTime != "08:00" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	cadence, err := cfg.Cadence()
	if err != nil {
		t.Fatalf("Cadence: %v", err)
	}
	if cadence.MaxAttempts != 3 || cadence.RetryBackoff != time.Minute || cadence.RecoverySleep != time.Hour ||
		cadence.CatchUpAfter != 24*time.Hour || cadence.Buffer != time.Minute {
		t.Fatalf("unexpected cadence: %+v", cadence)
	}
	if cadence.AlwaysDue || cadence.Every != 0 {
		t.Fatalf("diagnostic overrides enabled by default: %+v", cadence)
	}
	if cadence.Location != time.UTC {
		t.Fatalf("Location = %v, want UTC", cadence.Location)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REMINDER_TIME", "21:30")
	t.Setenv("REMINDER_EVERY", "1m")
	t.Setenv("ALWAYS_DUE", "true")
	t.Setenv("MAX_ATTEMPTS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ReminderTime != "21:30" || cfg.ReminderEvery != time.Minute || !cfg.AlwaysDue || cfg.MaxAttempts != 5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if err := cfg.RequireToken(); err == nil {
		t.Fatal("RequireToken accepted an empty token")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string][2]string{
		"reminder time": {"REMINDER_TIME", "25:00"},
		"timezone":      {"TIMEZONE", "Mars/Olympus"},
		"attempts":      {"MAX_ATTEMPTS", "0"},
		"duration":      {"RETRY_BACKOFF", "soon"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("Load accepted %s=%s", kv[0], kv[1])
			}
		})
	}
}
