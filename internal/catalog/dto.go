package catalog

import (
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImageUpload is an uploaded product picture awaiting storage.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ProductInput carries the full set of writable product fields. Update
// replaces every field; Image is optional on both create and update.
type ProductInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int
	CategoryID  *uuid.UUID
	Image       *ImageUpload
}

// CategoryRequest is the body for category create and rename.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}
