package models

import "time"

// Document is metadata for one uploaded file. ID is a generated UUID and
// doubles as the blob store key for the file's bytes.
type Document struct {
	ID        string `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name      string `gorm:"not null"`
	ProjectID uint   `gorm:"not null;index"`

	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
