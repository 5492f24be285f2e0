package models

import "time"

const (
	RoleOwner       = "owner"
	RoleParticipant = "participant"
)

// Permission grants a single role to a single user on a single project.
// The unique index makes a second grant for the same pair a constraint
// violation rather than a silent duplicate.
type Permission struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time

	UserID    uint   `gorm:"not null;uniqueIndex:idx_user_project"`
	ProjectID uint   `gorm:"not null;uniqueIndex:idx_user_project"`
	Role      string `gorm:"not null"`

	User    User    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
