package service

import (
	"strings"
	"testing"
	"time"

	"peptide-reminder/internal/model"
)

func TestIsDueTodayWeekdays(t *testing.T) {
	t.Parallel()
	loc := time.UTC
	// 2026-10-19 is a Monday.
	s := model.Schedule{
		DayPattern:        "1,3,5",
		CycleDurationDays: 42,
		StartDate:         time.Date(2026, 10, 19, 15, 0, 0, 0, loc),
	}
	want := map[int]bool{0: true, 1: false, 2: true, 3: false, 4: true, 5: false, 6: false, 7: true}
	for offset, due := range want {
		today := time.Date(2026, 10, 19+offset, 8, 0, 0, 0, loc)
		if got := IsDueToday(s, today, loc); got != due {
			t.Fatalf("offset %d (%s): IsDueToday = %t, want %t", offset, today.Weekday(), got, due)
		}
	}
}

func TestIsDueTodayInterval(t *testing.T) {
	t.Parallel()
	loc := time.UTC
	s := model.Schedule{
		DayPattern:        "every 3d",
		CycleDurationDays: 10,
		StartDate:         time.Date(2026, 10, 19, 23, 59, 0, 0, loc),
	}
	for offset := 0; offset < 10; offset++ {
		today := time.Date(2026, 10, 19+offset, 0, 1, 0, 0, loc)
		if got, want := IsDueToday(s, today, loc), offset%3 == 0; got != want {
			t.Fatalf("offset %d: IsDueToday = %t, want %t", offset, got, want)
		}
	}
}

func TestIsDueTodayNeverAfterCycle(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC-5", -5*3600)
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, loc)
	for _, pattern := range []string{"1,2,3,4,5,6,7", "every 1d", "every 7d", "2"} {
		for _, cycle := range []int{1, 7, 42, 365} {
			s := model.Schedule{DayPattern: pattern, CycleDurationDays: cycle, StartDate: start}
			for extra := 0; extra < 30; extra++ {
				today := start.AddDate(0, 0, cycle+extra)
				if IsDueToday(s, today, loc) {
					t.Fatalf("pattern %q cycle %d: due %d days after the cycle ended", pattern, cycle, extra)
				}
			}
		}
	}
}

func TestIsDueTodayUsesCalendarDaysInLocation(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC+10", 10*3600)
	s := model.Schedule{
		DayPattern:        "every 2d",
		CycleDurationDays: 42,
		// 23:00 UTC on the 18th is already the 19th in UTC+10.
		StartDate: time.Date(2026, 10, 18, 23, 0, 0, 0, time.UTC),
	}
	if !IsDueToday(s, time.Date(2026, 10, 19, 8, 0, 0, 0, loc), loc) {
		t.Fatal("start date should be due")
	}
	if IsDueToday(s, time.Date(2026, 10, 20, 8, 0, 0, 0, loc), loc) {
		t.Fatal("day 1 should not be due every 2 days")
	}
	if got := DaysRemaining(s, time.Date(2026, 10, 20, 8, 0, 0, 0, loc), loc); got != 41 {
		t.Fatalf("DaysRemaining = %d, want 41", got)
	}
}

func TestIsDueTodayBadPattern(t *testing.T) {
	t.Parallel()
	s := model.Schedule{DayPattern: "sometimes", CycleDurationDays: 10, StartDate: time.Now()}
	if IsDueToday(s, time.Now(), time.Local) {
		t.Fatal("unparseable pattern reported due")
	}
}

func TestRenderReminderEscapes(t *testing.T) {
	t.Parallel()
	text := RenderReminder(model.Schedule{PeptideName: "A<b>", Dosage: "1mg"}, 12)
	if strings.Contains(text, "A<b>") || !strings.Contains(text, "A&lt;b&gt;") {
		t.Fatalf("name not escaped: %q", text)
	}
	if !strings.Contains(text, "<b>12</b>") {
		t.Fatalf("days remaining missing: %q", text)
	}
}
