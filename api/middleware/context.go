package middleware

import (
	"context"

	"github.com/google/uuid"

	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
)

type contextKey string

const ctxAuth contextKey = "auth"

// AuthContext is the caller identity resolved from the session cookie.
type AuthContext struct {
	UserID     uuid.UUID
	Username   string
	Role       string
	SessionKey string
}

// WithAuth stores the resolved caller on the context.
func WithAuth(ctx context.Context, auth AuthContext) context.Context {
	return context.WithValue(ctx, ctxAuth, auth)
}

// AuthFromContext returns the caller identity and whether one was attached.
func AuthFromContext(ctx context.Context) (AuthContext, bool) {
	auth, ok := ctx.Value(ctxAuth).(AuthContext)
	return auth, ok
}

func UserIDFromContext(ctx context.Context) uuid.UUID {
	auth, _ := AuthFromContext(ctx)
	return auth.UserID
}

func RoleFromContext(ctx context.Context) string {
	auth, _ := AuthFromContext(ctx)
	return auth.Role
}

func SessionKeyFromContext(ctx context.Context) string {
	auth, _ := AuthFromContext(ctx)
	return auth.SessionKey
}

// RequireAuth returns the caller identity or an UNAUTHORIZED error when the
// request did not pass through Session.
func RequireAuth(ctx context.Context) (AuthContext, error) {
	auth, ok := AuthFromContext(ctx)
	if !ok || auth.UserID == uuid.Nil {
		return AuthContext{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return auth, nil
}
