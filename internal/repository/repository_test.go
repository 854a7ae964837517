package repository

import (
	"context"
	"testing"
	"time"

	"peptide-reminder/internal/model"
)

func seedSchedule(t *testing.T, users *UserRepository, schedules *ScheduleRepository, telegramID int64, name string) (*model.User, *model.Schedule) {
	t.Helper()
	ctx := context.Background()
	user, err := users.UpsertFromTelegram(ctx, telegramID, "Ann", "", "ann")
	if err != nil {
		t.Fatalf("UpsertFromTelegram: %v", err)
	}
	s := &model.Schedule{
		UserID:            user.ID,
		PeptideName:       name,
		Dosage:            "1mg",
		DayPattern:        "1,2,3,4,5,6,7",
		CycleDurationDays: 42,
		RestPeriodDays:    42,
		StartDate:         time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
		IsActive:          true,
	}
	if err := schedules.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return user, s
}

func TestUpsertFromTelegramUpdatesProfile(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	first, err := users.UpsertFromTelegram(ctx, 42, "Ann", "Lee", "ann")
	if err != nil {
		t.Fatalf("UpsertFromTelegram: %v", err)
	}
	second, err := users.UpsertFromTelegram(ctx, 42, "Anna", "Lee", "anna")
	if err != nil {
		t.Fatalf("UpsertFromTelegram: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same user, got ids %d and %d", first.ID, second.ID)
	}
	got, err := users.FindByTelegramID(ctx, 42)
	if err != nil {
		t.Fatalf("FindByTelegramID: %v", err)
	}
	if got.FirstName != "Anna" || got.Username != "anna" {
		t.Fatalf("profile not updated: %+v", got)
	}
}

func TestStopByNameIsScopedAndCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	schedules := NewScheduleRepository(db)
	ctx := context.Background()

	ann, _ := seedSchedule(t, users, schedules, 1, "BPC-157")
	seedSchedule(t, users, schedules, 1, "GHK-Cu")
	bob, _ := seedSchedule(t, users, schedules, 2, "BPC-157")

	stoppedAt := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	n, err := schedules.StopByName(ctx, ann.ID, "bpc-157", stoppedAt)
	if err != nil {
		t.Fatalf("StopByName: %v", err)
	}
	if n != 1 {
		t.Fatalf("stopped %d schedules, want 1", n)
	}

	annActive, err := schedules.ListActiveByUser(ctx, ann.ID)
	if err != nil {
		t.Fatalf("ListActiveByUser: %v", err)
	}
	if len(annActive) != 1 || annActive[0].PeptideName != "GHK-Cu" {
		t.Fatalf("unexpected active schedules for ann: %+v", annActive)
	}
	bobActive, err := schedules.ListActiveByUser(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListActiveByUser: %v", err)
	}
	if len(bobActive) != 1 {
		t.Fatalf("bob's schedule was touched: %+v", bobActive)
	}

	n, err = schedules.StopAll(ctx, ann.ID, stoppedAt)
	if err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	if n != 1 {
		t.Fatalf("StopAll stopped %d, want 1", n)
	}

	var stopped model.Schedule
	if err := db.Where("user_id = ? AND peptide_name = ?", ann.ID, "GHK-Cu").First(&stopped).Error; err != nil {
		t.Fatalf("load stopped schedule: %v", err)
	}
	if stopped.IsActive || stopped.CompletedAt == nil {
		t.Fatalf("schedule not marked completed: %+v", stopped)
	}
}

func TestListActivePreloadsUser(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	schedules := NewScheduleRepository(db)
	seedSchedule(t, users, schedules, 77, "Selank")

	active, err := schedules.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 || active[0].User.TelegramID != 77 {
		t.Fatalf("unexpected result: %+v", active)
	}
}

func TestAlreadySentMatchesCalendarDay(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	schedules := NewScheduleRepository(db)
	reminders := NewReminderRepository(db)
	ctx := context.Background()
	_, s := seedSchedule(t, users, schedules, 1, "GHK-Cu")

	loc := time.FixedZone("UTC+3", 3*3600)
	sentAt := time.Date(2026, 10, 19, 8, 0, 0, 0, loc)
	entries := []model.ReminderLog{
		{ScheduleID: s.ID, OccurrenceDate: sentAt.UTC(), IsSent: true, SentAt: &sentAt},
		{ScheduleID: s.ID, OccurrenceDate: sentAt.AddDate(0, 0, 1).UTC(), IsSent: false},
	}
	if err := reminders.CommitPass(ctx, entries, "reminder_scheduler", sentAt); err != nil {
		t.Fatalf("CommitPass: %v", err)
	}

	tests := []struct {
		name string
		day  time.Time
		want bool
	}{
		{name: "same day", day: time.Date(2026, 10, 19, 23, 30, 0, 0, loc), want: true},
		{name: "day before", day: time.Date(2026, 10, 18, 23, 59, 0, 0, loc), want: false},
		{name: "only failed attempt", day: time.Date(2026, 10, 20, 8, 0, 0, 0, loc), want: false},
	}
	for _, tt := range tests {
		got, err := reminders.AlreadySent(ctx, s.ID, tt.day)
		if err != nil {
			t.Fatalf("%s: AlreadySent: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: AlreadySent = %t, want %t", tt.name, got, tt.want)
		}
	}
}

func TestCommitPassUpsertsWorkerState(t *testing.T) {
	db := newTestDB(t)
	reminders := NewReminderRepository(db)
	ctx := context.Background()

	last, err := reminders.LastRun(ctx, "reminder_scheduler")
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last != nil {
		t.Fatalf("LastRun = %v before any pass", last)
	}

	first := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)
	for _, runAt := range []time.Time{first, second} {
		if err := reminders.CommitPass(ctx, nil, "reminder_scheduler", runAt); err != nil {
			t.Fatalf("CommitPass: %v", err)
		}
	}

	last, err = reminders.LastRun(ctx, "reminder_scheduler")
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last == nil || !last.Equal(second) {
		t.Fatalf("LastRun = %v, want %v", last, second)
	}
	var count int64
	db.Model(&model.WorkerState{}).Count(&count)
	if count != 1 {
		t.Fatalf("worker_states rows = %d, want 1", count)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	schedules := NewScheduleRepository(db)
	reminders := NewReminderRepository(db)
	ctx := context.Background()

	user, s := seedSchedule(t, users, schedules, 5, "GHK-Cu")
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	if err := reminders.CommitPass(ctx, []model.ReminderLog{{ScheduleID: s.ID, OccurrenceDate: now, IsSent: true, SentAt: &now}}, "w", now); err != nil {
		t.Fatalf("CommitPass: %v", err)
	}

	if err := users.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, m := range []interface{}{&model.User{}, &model.Schedule{}, &model.ReminderLog{}} {
		var count int64
		db.Model(m).Count(&count)
		if count != 0 {
			t.Fatalf("%T rows left after delete: %d", m, count)
		}
	}
}
