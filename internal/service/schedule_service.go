package service

import (
	"context"
	"fmt"
	"time"

	"peptide-reminder/internal/model"
	"peptide-reminder/internal/parser"
	"peptide-reminder/internal/repository"
)

// ScheduleService wraps schedule-related business logic for the command surface.
type ScheduleService struct {
	scheduleRepo *repository.ScheduleRepository
	now          func() time.Time
}

func NewScheduleService(scheduleRepo *repository.ScheduleRepository) *ScheduleService {
	return &ScheduleService{scheduleRepo: scheduleRepo, now: time.Now}
}

// CreateFromText parses raw and stores a new active schedule starting now.
// Parse rejections are returned as-is and wrap parser.ErrInvalidInput.
func (s *ScheduleService) CreateFromText(ctx context.Context, user *model.User, raw string) (*model.Schedule, parser.ParsedSchedule, error) {
	parsed, err := parser.Parse(raw)
	if err != nil {
		return nil, parser.ParsedSchedule{}, err
	}

	schedule := model.Schedule{
		UserID:            user.ID,
		PeptideName:       parsed.PeptideName,
		Dosage:            parsed.Dosage,
		DayPattern:        parsed.DayPattern.String(),
		CycleDurationDays: parsed.CycleDurationDays,
		RestPeriodDays:    parsed.RestPeriodDays,
		Notes:             parsed.Notes,
		StartDate:         s.now().UTC(),
		IsActive:          true,
	}
	if err := s.scheduleRepo.Create(ctx, &schedule); err != nil {
		return nil, parsed, err
	}
	return &schedule, parsed, nil
}

func (s *ScheduleService) ListActive(ctx context.Context, user *model.User) ([]model.Schedule, error) {
	return s.scheduleRepo.ListActiveByUser(ctx, user.ID)
}

// Stop deactivates the user's active schedules with the given peptide name.
func (s *ScheduleService) Stop(ctx context.Context, user *model.User, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("peptide name is required")
	}
	return s.scheduleRepo.StopByName(ctx, user.ID, name, s.now().UTC())
}

// StopAll deactivates every active schedule of the user.
func (s *ScheduleService) StopAll(ctx context.Context, user *model.User) (int64, error) {
	return s.scheduleRepo.StopAll(ctx, user.ID, s.now().UTC())
}
