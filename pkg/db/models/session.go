package models

import "time"

// Session is a persisted session-state entry keyed by an opaque key.
type Session struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Data      string    `gorm:"column:data;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
}
