package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	"github.com/agromarket/agromarket-backend/pkg/pagination"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) withRole(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Role")
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads a user with its role.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.withRole(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername retrieves the user matching the provided username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.withRole(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UsernameTaken reports whether a user other than except holds username.
func (r *Repository) UsernameTaken(ctx context.Context, username string, except uuid.UUID) (bool, error) {
	return r.taken(ctx, "username", username, except)
}

// EmailTaken reports whether a user other than except holds email.
func (r *Repository) EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	return r.taken(ctx, "email", email, except)
}

func (r *Repository) taken(ctx context.Context, column, value string, except uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.User{}).Where(column+" = ?", value)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateFields applies a partial column update.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListPending returns accounts awaiting approval, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]models.User, error) {
	var rows []models.User
	err := r.withRole(ctx).
		Where("is_pending_approval = ?", true).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// List pages through every user, newest first.
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.User, error) {
	var rows []models.User
	err := r.withRole(ctx).
		Scopes(pagination.Scope("created_at", cursor, limit)).
		Find(&rows).Error
	return rows, err
}

// Count returns the number of users.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

// EnsureRole returns the role with name, inserting it when missing.
func (r *Repository) EnsureRole(ctx context.Context, name enums.RoleName) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err == nil {
		return &role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	role = models.Role{Name: name}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&role).Error; err != nil {
		return nil, err
	}
	// a concurrent insert may have won the conflict
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}
