package models

import "time"

type User struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Login        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
}
