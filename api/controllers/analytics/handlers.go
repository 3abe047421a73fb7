package analytics

import (
	"net/http"

	"github.com/agromarket/agromarket-backend/api/responses"
	internalanalytics "github.com/agromarket/agromarket-backend/internal/analytics"
	"github.com/agromarket/agromarket-backend/pkg/logger"
)

func Summary(svc internalanalytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
