package model

import "time"

// ReminderLog records one delivery attempt of a schedule occurrence.
type ReminderLog struct {
	ID             uint      `gorm:"primaryKey"`
	ScheduleID     uint      `gorm:"index:idx_reminder_schedule_date;not null"`
	OccurrenceDate time.Time `gorm:"index:idx_reminder_schedule_date;not null"`
	IsSent         bool      `gorm:"default:false"`
	SentAt         *time.Time
	CreatedAt      time.Time
}
