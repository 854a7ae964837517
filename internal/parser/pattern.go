package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayPattern is the weekly recurrence of a schedule: either an explicit set
// of ISO weekdays or a fixed interval in days counted from the start date.
type DayPattern struct {
	weekdays []int
	interval int
}

// WeekdayPattern builds a pattern from weekday numbers 1..7.
func WeekdayPattern(days []int) (DayPattern, error) {
	if len(days) == 0 {
		return DayPattern{}, fmt.Errorf("%w: empty", ErrInvalidPattern)
	}
	cp := make([]int, len(days))
	copy(cp, days)
	for _, d := range cp {
		if d < 1 || d > 7 {
			return DayPattern{}, fmt.Errorf("%w: bad day %d", ErrInvalidPattern, d)
		}
	}
	return DayPattern{weekdays: cp}, nil
}

// IntervalPattern builds a pattern that fires every n days.
func IntervalPattern(n int) (DayPattern, error) {
	if n < 1 {
		return DayPattern{}, fmt.Errorf("%w: interval %d", ErrInvalidPattern, n)
	}
	return DayPattern{interval: n}, nil
}

// IsZero reports whether p was never initialized.
func (p DayPattern) IsZero() bool {
	return len(p.weekdays) == 0 && p.interval == 0
}

// Weekdays returns a copy of the weekday set, nil for interval patterns.
func (p DayPattern) Weekdays() []int {
	if len(p.weekdays) == 0 {
		return nil
	}
	cp := make([]int, len(p.weekdays))
	copy(cp, p.weekdays)
	return cp
}

// IntervalDays returns the interval, 0 for weekday patterns.
func (p DayPattern) IntervalDays() int {
	return p.interval
}

// Matches reports whether the pattern fires on the given day, where
// daysSinceStart is the calendar distance from the cycle start.
func (p DayPattern) Matches(day time.Time, daysSinceStart int) bool {
	if p.interval > 0 {
		return daysSinceStart%p.interval == 0
	}
	wd := ISOWeekday(day)
	for _, d := range p.weekdays {
		if d == wd {
			return true
		}
	}
	return false
}

// String is the canonical persisted form: "1,3,5" or "every 2d".
func (p DayPattern) String() string {
	if p.interval > 0 {
		return "every " + strconv.Itoa(p.interval) + "d"
	}
	parts := make([]string, len(p.weekdays))
	for i, d := range p.weekdays {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// Describe renders the pattern for people.
func (p DayPattern) Describe() string {
	if p.interval == 1 {
		return "daily"
	}
	if p.interval > 0 {
		return fmt.Sprintf("every %d days", p.interval)
	}
	if len(p.weekdays) == 7 {
		return "every day of the week"
	}
	names := make([]string, len(p.weekdays))
	for i, d := range p.weekdays {
		names[i] = weekdayNames[d-1]
	}
	return strings.Join(names, ", ")
}

var weekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// ParseDayPattern decodes the form produced by String.
func ParseDayPattern(s string) (DayPattern, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "every "); ok {
		n, err := strconv.Atoi(strings.TrimSuffix(rest, "d"))
		if err != nil {
			return DayPattern{}, fmt.Errorf("%w: %q", ErrInvalidPattern, s)
		}
		return IntervalPattern(n)
	}
	days, err := NormalizeDayPattern(s)
	if err != nil {
		return DayPattern{}, err
	}
	return WeekdayPattern(days)
}

// ISOWeekday maps time.Weekday to Mon=1..Sun=7.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
