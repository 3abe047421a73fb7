package models

import (
	"github.com/google/uuid"

	"github.com/agromarket/agromarket-backend/pkg/enums"
)

// Role names a permission group; users reference exactly one.
type Role struct {
	ID   uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name enums.RoleName `gorm:"column:name;not null;uniqueIndex"`
}
