package validators

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agromarket/agromarket-backend/internal/catalog"
	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
)

const formMemory = 8 << 20

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// ProductForm is a parsed multipart product submission. Close releases the
// temp files backing the upload once the service is done with Input.Image.
type ProductForm struct {
	Input catalog.ProductInput
	form  *multipart.Form
	file  multipart.File
}

func (f *ProductForm) Close() {
	if f == nil {
		return
	}
	if f.file != nil {
		f.file.Close()
	}
	if f.form != nil {
		f.form.RemoveAll()
	}
}

// ParseProductForm decodes the multipart fields name, description, price,
// stock, categoryId and the optional image file. Requests larger than
// maxBytes are rejected.
func ParseProductForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (*ProductForm, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "upload too large").WithDetails(map[string]any{"max_bytes": maxBytes})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}

	form := &ProductForm{form: r.MultipartForm}
	details := map[string]string{}

	form.Input.Name = SanitizeString(r.FormValue("name"), 200)
	if desc := strings.TrimSpace(r.FormValue("description")); desc != "" {
		form.Input.Description = &desc
	}

	if raw := strings.TrimSpace(r.FormValue("price")); raw == "" {
		details["price"] = "is required"
	} else if price, err := decimal.NewFromString(raw); err != nil {
		details["price"] = "must be a number"
	} else {
		form.Input.Price = price
	}

	if raw := strings.TrimSpace(r.FormValue("stock")); raw == "" {
		details["stock"] = "is required"
	} else if stock, err := strconv.Atoi(raw); err != nil {
		details["stock"] = "must be an integer"
	} else {
		form.Input.Stock = stock
	}

	if raw := strings.TrimSpace(r.FormValue("categoryId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			details["categoryId"] = "must be a uuid"
		} else {
			form.Input.CategoryID = &id
		}
	}

	if len(details) > 0 {
		form.Close()
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return form, nil
	case err != nil:
		form.Close()
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image upload")
	}
	form.file = file

	contentType := header.Header.Get("Content-Type")
	if _, ok := allowedImageTypes[contentType]; !ok {
		form.Close()
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported image type").WithDetails(map[string]string{"image": contentType})
	}

	form.Input.Image = &catalog.ImageUpload{
		Filename:    filepath.Base(header.Filename),
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	}
	return form, nil
}
