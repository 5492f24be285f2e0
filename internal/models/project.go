package models

import "time"

type Project struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name        string `gorm:"not null"`
	Description string
	// ID of the logo blob, nil when the project has no logo.
	LogoID *string
}
