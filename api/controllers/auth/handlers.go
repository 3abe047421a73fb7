package auth

import (
	"net/http"

	"github.com/agromarket/agromarket-backend/api/middleware"
	"github.com/agromarket/agromarket-backend/api/responses"
	"github.com/agromarket/agromarket-backend/api/validators"
	"github.com/agromarket/agromarket-backend/internal/auth"
	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
	"github.com/agromarket/agromarket-backend/pkg/logger"
)

type sessionCookies interface {
	Read(r *http.Request) string
	Write(w http.ResponseWriter, key string)
	Clear(w http.ResponseWriter)
}

// Register creates a pending customer account.
func Register(svc auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"message": "registration received, awaiting administrator approval",
			"user":    user,
		})
	}
}

// Login authenticates the credentials and sets the session cookie.
func Login(svc auth.Service, cookies sessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookies.Write(w, result.SessionKey)
		responses.WriteSuccess(w, result)
	}
}

// Logout destroys the current session, if any, and expires the cookie.
func Logout(svc auth.Service, cookies sessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		if err := svc.Logout(r.Context(), cookies.Read(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookies.Clear(w)
		responses.WriteMessage(w, "logged out")
	}
}

// CheckSession reports the username behind the active session.
func CheckSession(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := middleware.RequireAuth(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, auth.CheckSessionResponse{Username: caller.Username})
	}
}
