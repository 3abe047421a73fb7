package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/types"
)

// ProductDTO is the client view of a product with placeholders resolved.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category"`
	CategoryID  *uuid.UUID      `json:"category_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type CategoryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func ProductFromModel(p *models.Product) ProductDTO {
	var category *string
	if p.Category != nil {
		category = &p.Category.Name
	}
	return ProductDTO{
		ID:          p.ID,
		Name:        types.Fallback(&p.Name, types.FallbackProductName),
		Description: types.Fallback(p.Description, types.FallbackDescription),
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    types.Deref(p.ImageURL),
		Category:    types.Fallback(category, types.FallbackCategory),
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ProductsFromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, ProductFromModel(&rows[i]))
	}
	return out
}

func CategoryFromModel(c *models.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name}
}

func CategoriesFromModels(rows []models.Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, CategoryFromModel(&rows[i]))
	}
	return out
}
