package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"peptide-reminder/internal/model"
	"peptide-reminder/internal/parser"
	"peptide-reminder/internal/service"
)

const (
	iconActive   = "💊"
	iconLastDays = "⏳"
	iconFinished = "🏁"
)

func welcomeText(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(
		"👋 Hi, %s!\n<b>I send a morning reminder on every dosing day of your peptide cycles.</b>\n\n"+
			"Send a schedule as one message:\n"+
			"<code>name; dosage; days; duration</code>\n\n"+
			"%s\n\nSee /help for all commands.",
		escape(name), examplesText(),
	)
}

func helpText() string {
	return "ℹ️ <b>How to add a schedule</b>\n" +
		"<code>name; dosage; days; duration</code>\n" +
		"• <b>days</b>: weekdays 1-7 (Mon=1), a range like <code>1-5</code> or a list like <code>1,3,5</code>. " +
		"Phrases work too: <code>daily</code>, <code>eod</code>, <code>twice weekly</code>, <code>weekly</code>.\n" +
		"• <b>duration</b>: weeks (1-52) or a phrase like <code>30 days</code>.\n\n" +
		examplesText() + "\n\n" +
		"<b>Commands</b>\n" +
		"• /status — active schedules and days left\n" +
		"• /stop &lt;name&gt; — stop a schedule\n" +
		"• /stopall — stop every schedule\n" +
		"• /delete_me — delete all your data"
}

func examplesText() string {
	return "Examples:\n" +
		"• <code>GHK-Cu; 1mg; 1-7; 6</code>\n" +
		"• <code>BPC-157; 500mcg; 1,3,5; 8</code>\n" +
		"• <code>TB-500; 2mg; twice weekly; 10</code>"
}

func rejectionText() string {
	return "🤔 I could not read that schedule.\n" +
		"Use four fields separated by semicolons:\n" +
		"<code>name; dosage; days; duration</code>\n\n" +
		examplesText()
}

func confirmationPrompt(action confirmationAction) string {
	if action == actionDeleteMe {
		return "Delete your account with all schedules and reminder history?"
	}
	return "Stop every active schedule?"
}

func formatCreated(s model.Schedule, parsed parser.ParsedSchedule) string {
	var sb strings.Builder
	sb.WriteString("✅ <b>Schedule saved</b>\n")
	sb.WriteString(fmt.Sprintf("• <b>Peptide:</b> %s\n", escape(s.PeptideName)))
	sb.WriteString(fmt.Sprintf("• <b>Dosage:</b> %s\n", escape(s.Dosage)))
	sb.WriteString(fmt.Sprintf("• <b>Days:</b> %s\n", escape(parsed.DayPattern.Describe())))
	sb.WriteString(fmt.Sprintf("• <b>Cycle:</b> %s\n", plural(int64(s.CycleDurationDays), "day")))
	sb.WriteString(fmt.Sprintf("• <b>Rest after cycle:</b> %s\n", plural(int64(s.RestPeriodDays), "day")))
	sb.WriteString("\nReminders start today.")
	return sb.String()
}

// formatScheduleList renders active schedules; ones whose cycle is over but
// were never stopped are shown as finished.
func formatScheduleList(schedules []model.Schedule, now time.Time, loc *time.Location) string {
	if len(schedules) == 0 {
		return "You have no active schedules. Send one like <code>GHK-Cu; 1mg; 1-7; 6</code>."
	}
	var sb strings.Builder
	sb.WriteString("📋 <b>Active schedules</b>\n\n")
	for _, s := range schedules {
		left := service.DaysRemaining(s, now, loc)
		icon := iconActive
		switch {
		case service.Lapsed(s, now, loc):
			icon = iconFinished
		case left <= 3:
			icon = iconLastDays
		}
		sb.WriteString(fmt.Sprintf("%s <b>%s</b> · %s\n", icon, escape(s.PeptideName), escape(s.Dosage)))
		sb.WriteString(fmt.Sprintf("   📅 %s\n", escape(describePattern(s.DayPattern))))
		if service.Lapsed(s, now, loc) {
			sb.WriteString("   cycle finished\n")
		} else {
			sb.WriteString(fmt.Sprintf("   %s left of %d\n", plural(int64(left), "day"), s.CycleDurationDays))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}

func describePattern(stored string) string {
	p, err := parser.ParseDayPattern(stored)
	if err != nil {
		return stored
	}
	return p.Describe()
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func escape(s string) string {
	return html.EscapeString(s)
}
