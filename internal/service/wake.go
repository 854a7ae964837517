package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Cadence is the dispatcher's clock-and-cadence configuration.
type Cadence struct {
	// TriggerTime is the daily wake time, "HH:MM" in Location.
	TriggerTime string
	Location    *time.Location

	// Every replaces the daily trigger with a fixed delay. Diagnostics only.
	Every time.Duration
	// AlwaysDue treats every active schedule as due. Diagnostics only.
	AlwaysDue bool

	Buffer        time.Duration
	MaxAttempts   int
	RetryBackoff  time.Duration
	RecoverySleep time.Duration
	CatchUpAfter  time.Duration
}

// DefaultCadence wakes daily at 08:00 local time.
func DefaultCadence() Cadence {
	return Cadence{
		TriggerTime:   "08:00",
		Location:      time.Local,
		Buffer:        time.Minute,
		MaxAttempts:   3,
		RetryBackoff:  time.Minute,
		RecoverySleep: time.Hour,
		CatchUpAfter:  24 * time.Hour,
	}
}

func (c Cadence) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// NextWake returns the next trigger strictly after now. With a daily trigger
// that already passed today the result is tomorrow's trigger.
func NextWake(now time.Time, c Cadence) (time.Time, error) {
	if c.Every > 0 {
		return cron.Every(c.Every).Next(now), nil
	}
	spec, err := DailySpec(c.TriggerTime)
	if err != nil {
		return time.Time{}, err
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse trigger %q: %w", spec, err)
	}
	return schedule.Next(now.In(c.location())), nil
}

// DailySpec converts an HH:MM time string into a standard cron spec.
func DailySpec(timeStr string) (string, error) {
	parts := strings.Split(strings.TrimSpace(timeStr), ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// cron format: minute hour dom month dow
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
