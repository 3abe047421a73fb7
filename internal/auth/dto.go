package auth

import (
	"github.com/google/uuid"

	"github.com/agromarket/agromarket-backend/internal/users"
)

// RegisterRequest is the self-service signup payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest holds the credentials for username/password login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the new session key alongside the public user shape.
type LoginResult struct {
	SessionKey string         `json:"-"`
	User       *users.UserDTO `json:"user"`
}

// Identity is what an authenticated request knows about its caller.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     string
}

// CheckSessionResponse is returned by the session probe endpoint.
type CheckSessionResponse struct {
	Username string `json:"username"`
}
