package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/internal/repo"
	"github.com/agromarket/agromarket-backend/pkg/db/models"
)

// Repository persists user activity rows.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, entry *models.UserActivity) error {
	return r.DB(ctx).Omit("User").Create(entry).Error
}

// ListSince returns a user's entries at or after since, newest first.
func (r *Repository) ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.UserActivity, error) {
	var rows []models.UserActivity
	err := r.DB(ctx).
		Preload("User").
		Where("user_id = ? AND timestamp >= ?", userID, since).
		Order("timestamp DESC").
		Find(&rows).Error
	return rows, err
}

// DeleteBefore removes entries older than cutoff and returns how many went.
func (r *Repository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).Where("timestamp < ?", cutoff).Delete(&models.UserActivity{})
	return res.RowsAffected, res.Error
}
