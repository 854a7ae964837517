package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"peptide-reminder/internal/model"
	"peptide-reminder/internal/parser"
)

// civilDay strips the clock from t in loc, keeping only the calendar date.
func civilDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysSinceStart counts calendar days between the schedule start and today in loc.
func DaysSinceStart(s model.Schedule, today time.Time, loc *time.Location) int {
	return int(civilDay(today, loc).Sub(civilDay(s.StartDate, loc)).Hours() / 24)
}

// DaysRemaining is the number of cycle days left including today.
func DaysRemaining(s model.Schedule, today time.Time, loc *time.Location) int {
	return s.CycleDurationDays - DaysSinceStart(s, today, loc)
}

// Lapsed reports whether the schedule's cycle is over on today.
func Lapsed(s model.Schedule, today time.Time, loc *time.Location) bool {
	return DaysSinceStart(s, today, loc) >= s.CycleDurationDays
}

// IsDueToday decides whether the schedule has an occurrence on today. The
// schedule is never modified; lapsed cycles are simply not due.
func IsDueToday(s model.Schedule, today time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	days := DaysSinceStart(s, today, loc)
	if days < 0 || days >= s.CycleDurationDays {
		return false
	}
	pattern, err := parser.ParseDayPattern(s.DayPattern)
	if err != nil {
		return false
	}
	return pattern.Matches(today.In(loc), days)
}

// RenderReminder builds the HTML reminder text for one occurrence.
func RenderReminder(s model.Schedule, daysRemaining int) string {
	var sb strings.Builder
	sb.WriteString("🌅 <b>Good morning!</b>\n\n")
	sb.WriteString(fmt.Sprintf("💊 Today you need to take: <b>%s</b>\n", html.EscapeString(s.PeptideName)))
	sb.WriteString(fmt.Sprintf("📏 Dosage: <b>%s</b>\n", html.EscapeString(s.Dosage)))
	sb.WriteString(fmt.Sprintf("📅 Days remaining in cycle: <b>%d</b>\n\n", daysRemaining))
	sb.WriteString("Have a great day! 🧬")
	return sb.String()
}
