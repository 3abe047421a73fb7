package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/types"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID                uuid.UUID `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	IsBlocked         bool      `json:"is_blocked"`
	IsPendingApproval bool      `json:"is_pending_approval"`
	CreatedAt         time.Time `json:"created_at"`
}

// UpdateProfileRequest carries optional profile changes; nil fields are kept.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=64"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"`
}

// ApproveRequest is an admin decision on a pending account.
type ApproveRequest struct {
	UserID  uuid.UUID `json:"user_id" validate:"required"`
	Approve bool      `json:"approve"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	role := u.RoleName()
	return &UserDTO{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		Role:              types.Fallback(&role, types.FallbackRole),
		IsBlocked:         u.IsBlocked,
		IsPendingApproval: u.IsPendingApproval,
		CreatedAt:         u.CreatedAt,
	}
}

func FromModels(rows []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
