package model

import "time"

// Schedule is one dosing cycle for a peptide. DayPattern holds the canonical
// form produced by parser.DayPattern.String.
type Schedule struct {
	ID                uint   `gorm:"primaryKey"`
	UserID            uint   `gorm:"index;not null"`
	User              User   `gorm:"constraint:OnDelete:CASCADE"`
	PeptideName       string `gorm:"size:100;not null"`
	Dosage            string `gorm:"size:50;not null"`
	DayPattern        string `gorm:"size:32;not null"`
	CycleDurationDays int    `gorm:"not null"`
	RestPeriodDays    int    `gorm:"not null"`
	Notes             string `gorm:"size:500"`
	StartDate         time.Time
	IsActive          bool `gorm:"default:true;index"`
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ReminderLogs      []ReminderLog `gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE"`
}
