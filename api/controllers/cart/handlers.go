package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/agromarket/agromarket-backend/api/middleware"
	"github.com/agromarket/agromarket-backend/api/responses"
	"github.com/agromarket/agromarket-backend/api/validators"
	cartsvc "github.com/agromarket/agromarket-backend/internal/cart"
	"github.com/agromarket/agromarket-backend/pkg/logger"
)

type mutation func(svc cartsvc.Service, r *http.Request, userID, productID uuid.UUID, quantity int) (*cartsvc.CartDTO, error)

// Get returns the caller's cart, creating it on first access.
func Get(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := middleware.RequireAuth(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Get(r.Context(), caller.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// Add merges quantity of productId into the cart.
func Add(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return quantityHandler(svc, logg, func(svc cartsvc.Service, r *http.Request, userID, productID uuid.UUID, quantity int) (*cartsvc.CartDTO, error) {
		return svc.Add(r.Context(), userID, productID, quantity)
	})
}

// Update sets the line quantity; zero or less removes the line.
func Update(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return quantityHandler(svc, logg, func(svc cartsvc.Service, r *http.Request, userID, productID uuid.UUID, quantity int) (*cartsvc.CartDTO, error) {
		return svc.Update(r.Context(), userID, productID, quantity)
	})
}

func quantityHandler(svc cartsvc.Service, logg *logger.Logger, apply mutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := middleware.RequireAuth(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseQueryUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity, err := validators.ParseRequiredQueryInt(r, "quantity")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := apply(svc, r, caller.UserID, productID, quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func Remove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := middleware.RequireAuth(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Remove(r.Context(), caller.UserID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func Clear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := middleware.RequireAuth(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), caller.UserID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "cart cleared")
	}
}
