package catalog

import (
	"net/http"

	"github.com/agromarket/agromarket-backend/api/responses"
	"github.com/agromarket/agromarket-backend/api/validators"
	"github.com/agromarket/agromarket-backend/internal/catalog"
	"github.com/agromarket/agromarket-backend/pkg/logger"
)

// ListProducts returns the catalog, optionally filtered by category_id and a
// case-insensitive name search.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := validators.ParseOptionalQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListProducts(r.Context(), catalog.ProductFilter{
			CategoryID: categoryID,
			Search:     validators.SanitizeString(r.URL.Query().Get("search"), 100),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// CreateProduct accepts a multipart product form with an optional image.
func CreateProduct(svc catalog.Service, maxUpload int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := validators.ParseProductForm(w, r, maxUpload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer form.Close()

		product, err := svc.CreateProduct(r.Context(), form.Input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// UpdateProduct replaces the product fields; a new image replaces the old one.
func UpdateProduct(svc catalog.Service, maxUpload int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		form, err := validators.ParseProductForm(w, r, maxUpload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer form.Close()

		product, err := svc.UpdateProduct(r.Context(), id, form.Input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func DeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "product deleted")
	}
}
