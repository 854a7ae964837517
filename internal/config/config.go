package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"peptide-reminder/internal/service"
)

// Config keeps runtime settings for the bot and the reminder worker.
type Config struct {
	TelegramToken string `envconfig:"TELEGRAM_TOKEN"`
	DatabaseURL   string `envconfig:"DATABASE_URL" default:"peptide_bot.db"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`     // trace|debug|info|warn|error
	LogFormat     string `envconfig:"LOG_FORMAT" default:"console"` // console|json
	Timezone      string `envconfig:"TIMEZONE" default:"Local"`

	ReminderTime  string        `envconfig:"REMINDER_TIME" default:"08:00"`
	SendRate      int           `envconfig:"SEND_RATE" default:"25"` // messages per second
	MaxAttempts   int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	RetryBackoff  time.Duration `envconfig:"RETRY_BACKOFF" default:"60s"`
	RecoverySleep time.Duration `envconfig:"RECOVERY_SLEEP" default:"1h"`
	CatchUpAfter  time.Duration `envconfig:"CATCHUP_AFTER" default:"24h"`
	PassBuffer    time.Duration `envconfig:"PASS_BUFFER" default:"60s"`

	// Diagnostics only. ReminderEvery replaces the daily trigger with a fixed
	// delay and AlwaysDue skips the day-pattern check.
	ReminderEvery time.Duration `envconfig:"REMINDER_EVERY"`
	AlwaysDue     bool          `envconfig:"ALWAYS_DUE"`
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)

	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}
	if _, err := service.DailySpec(cfg.ReminderTime); err != nil {
		return cfg, err
	}
	if cfg.MaxAttempts < 1 {
		return cfg, fmt.Errorf("MAX_ATTEMPTS must be at least 1")
	}
	if cfg.SendRate < 1 {
		return cfg, fmt.Errorf("SEND_RATE must be at least 1")
	}
	return cfg, nil
}

// RequireToken fails when no Telegram token is configured.
func (c Config) RequireToken() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

// Location resolves Timezone; "Local" and "" mean the process timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Cadence builds the dispatcher timing settings.
func (c Config) Cadence() (service.Cadence, error) {
	loc, err := c.Location()
	if err != nil {
		return service.Cadence{}, err
	}
	return service.Cadence{
		TriggerTime:   c.ReminderTime,
		Location:      loc,
		Every:         c.ReminderEvery,
		AlwaysDue:     c.AlwaysDue,
		Buffer:        c.PassBuffer,
		MaxAttempts:   c.MaxAttempts,
		RetryBackoff:  c.RetryBackoff,
		RecoverySleep: c.RecoverySleep,
		CatchUpAfter:  c.CatchUpAfter,
	}, nil
}
