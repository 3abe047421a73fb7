package middleware

import (
	"context"
	"net/http"

	"github.com/agromarket/agromarket-backend/api/responses"
	"github.com/agromarket/agromarket-backend/internal/auth"
	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
	"github.com/agromarket/agromarket-backend/pkg/logger"
)

type sessionResolver interface {
	CheckSession(ctx context.Context, sessionKey string) (*auth.Identity, error)
}

type cookieReader interface {
	Read(r *http.Request) string
}

// Session resolves the session cookie into an AuthContext, rejecting requests
// without a live session for an approved, unblocked user.
func Session(resolver sessionResolver, cookies cookieReader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := cookies.Read(r)
			if key == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "not authenticated"))
				return
			}

			identity, err := resolver.CheckSession(ctx, key)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = WithAuth(ctx, AuthContext{
				UserID:     identity.UserID,
				Username:   identity.Username,
				Role:       identity.Role,
				SessionKey: key,
			})
			if logg != nil {
				ctx = logg.WithUserID(ctx, identity.UserID.String())
				ctx = logg.WithRole(ctx, identity.Role)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
