package model

import "time"

// WorkerState keeps the last successful pass of a named background worker.
type WorkerState struct {
	ID          uint   `gorm:"primaryKey"`
	WorkerName  string `gorm:"size:100;uniqueIndex;not null"`
	LastRunTime *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
