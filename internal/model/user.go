package model

import "time"

// User represents a registered dashboard user. Passwords are stored as
// bcrypt hashes, never in clear text.
type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	FirstName    string `gorm:"size:128;not null"`
	LastName     string `gorm:"size:128;not null"`
	Email        string `gorm:"uniqueIndex;size:256;not null"`
	PasswordHash string `gorm:"not null"`
	LastLogin    *time.Time
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}
