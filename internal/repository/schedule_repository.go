package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"peptide-reminder/internal/model"
)

// ScheduleRepository handles CRUD for dosing schedules.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Create(ctx context.Context, schedule *model.Schedule) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(schedule).Error; err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) ListActiveByUser(ctx context.Context, userID uint) ([]model.Schedule, error) {
	var schedules []model.Schedule
	if err := r.db.WithContext(ctx).Where("user_id = ? AND is_active = ?", userID, true).
		Order("start_date ASC, id ASC").
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// ListActive returns every active schedule with its owner preloaded.
func (r *ScheduleRepository) ListActive(ctx context.Context) ([]model.Schedule, error) {
	var schedules []model.Schedule
	if err := r.db.WithContext(ctx).Preload("User").Where("is_active = ?", true).
		Order("id ASC").
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// StopByName deactivates the user's active schedules whose name matches
// case-insensitively and returns how many were stopped.
func (r *ScheduleRepository) StopByName(ctx context.Context, userID uint, name string, stoppedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Schedule{}).
		Where("user_id = ? AND is_active = ? AND LOWER(peptide_name) = ?", userID, true, strings.ToLower(strings.TrimSpace(name))).
		Updates(map[string]interface{}{"is_active": false, "completed_at": stoppedAt})
	if res.Error != nil {
		return 0, fmt.Errorf("stop schedule: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// StopAll deactivates every active schedule of the user.
func (r *ScheduleRepository) StopAll(ctx context.Context, userID uint, stoppedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Schedule{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{"is_active": false, "completed_at": stoppedAt})
	if res.Error != nil {
		return 0, fmt.Errorf("stop schedules: %w", res.Error)
	}
	return res.RowsAffected, nil
}
