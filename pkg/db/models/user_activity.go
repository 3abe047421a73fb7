package models

import (
	"time"

	"github.com/google/uuid"
)

// UserActivity is an append-only audit entry.
type UserActivity struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Action    string    `gorm:"column:action;not null"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index"`
}

func (UserActivity) TableName() string { return "user_activities" }
