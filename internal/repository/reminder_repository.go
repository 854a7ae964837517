package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"peptide-reminder/internal/model"
)

// ReminderRepository backs the dispatch loop: the reminder ledger and the
// worker liveness record.
type ReminderRepository struct {
	db        *gorm.DB
	schedules *ScheduleRepository
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db, schedules: NewScheduleRepository(db)}
}

// ListActiveSchedules returns the schedules a pass has to consider.
func (r *ReminderRepository) ListActiveSchedules(ctx context.Context) ([]model.Schedule, error) {
	return r.schedules.ListActive(ctx)
}

// AlreadySent reports whether the schedule has a successful delivery logged
// on the calendar day of day (in day's location).
func (r *ReminderRepository) AlreadySent(ctx context.Context, scheduleID uint, day time.Time) (bool, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var count int64
	err := r.db.WithContext(ctx).Model(&model.ReminderLog{}).
		Where("schedule_id = ? AND occurrence_date >= ? AND occurrence_date < ? AND is_sent = ?",
			scheduleID, start.UTC(), end.UTC(), true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check reminder log: %w", err)
	}
	return count > 0, nil
}

// CommitPass stores the pass's ledger entries and the worker's last run time
// in one transaction.
func (r *ReminderRepository) CommitPass(ctx context.Context, entries []model.ReminderLog, workerName string, runAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(entries) > 0 {
			if err := tx.Create(&entries).Error; err != nil {
				return fmt.Errorf("insert reminder logs: %w", err)
			}
		}
		runAt := runAt.UTC()
		state := model.WorkerState{WorkerName: workerName, LastRunTime: &runAt}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "worker_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_run_time", "updated_at"}),
		}).Create(&state).Error
		if err != nil {
			return fmt.Errorf("upsert worker state: %w", err)
		}
		return nil
	})
}

// LastRun returns the worker's last committed pass, nil if it never ran.
func (r *ReminderRepository) LastRun(ctx context.Context, workerName string) (*time.Time, error) {
	var state model.WorkerState
	err := r.db.WithContext(ctx).Where("worker_name = ?", workerName).First(&state).Error
	switch {
	case err == nil:
		return state.LastRunTime, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find worker state: %w", err)
	}
}

// ListBySchedule returns the ledger of a schedule, oldest first.
func (r *ReminderRepository) ListBySchedule(ctx context.Context, scheduleID uint) ([]model.ReminderLog, error) {
	var logs []model.ReminderLog
	if err := r.db.WithContext(ctx).Where("schedule_id = ?", scheduleID).
		Order("occurrence_date ASC, id ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
