package model

import "time"

// User stores Telegram user metadata. Deleting a user removes its schedules
// and their reminder logs.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Schedules  []Schedule `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
