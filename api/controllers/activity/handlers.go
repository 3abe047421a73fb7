package activity

import (
	"net/http"

	"github.com/agromarket/agromarket-backend/api/middleware"
	"github.com/agromarket/agromarket-backend/api/responses"
	internalactivity "github.com/agromarket/agromarket-backend/internal/activity"
	"github.com/agromarket/agromarket-backend/pkg/logger"
)

// ListRecent returns the caller's activity for the last week.
func ListRecent(svc internalactivity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := middleware.RequireAuth(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.ListRecent(r.Context(), caller.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
