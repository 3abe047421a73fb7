package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered marketplace account.
type User struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Username          string    `gorm:"column:username;not null;uniqueIndex"`
	Email             string    `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash      string    `gorm:"column:password_hash;not null"`
	RoleID            uuid.UUID `gorm:"column:role_id;type:uuid;not null"`
	Role              *Role     `gorm:"foreignKey:RoleID"`
	IsBlocked         bool      `gorm:"column:is_blocked;not null;default:false"`
	IsPendingApproval bool      `gorm:"column:is_pending_approval;not null;default:true"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// RoleName returns the loaded role's name or empty when the relation was not preloaded.
func (u *User) RoleName() string {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name.String()
}

// CanAuthenticate reports whether the account may hold a session.
func (u *User) CanAuthenticate() bool {
	return u != nil && !u.IsBlocked && !u.IsPendingApproval
}
