package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/types"
)

// CartDTO is the client view of a cart with live prices.
type CartDTO struct {
	ID        uuid.UUID       `json:"id"`
	Items     []ItemDTO       `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

type ItemDTO struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
	LineTotal decimal.Decimal `json:"line_total"`
	AddedAt   time.Time       `json:"added_at"`
}

func FromModel(cart *models.Cart) *CartDTO {
	out := &CartDTO{ID: cart.ID, Items: make([]ItemDTO, 0, len(cart.Items)), Total: decimal.Zero}
	for _, item := range cart.Items {
		line := ItemDTO{
			ProductID: item.ProductID,
			Name:      types.FallbackProductName,
			UnitPrice: item.UnitPrice(),
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
			AddedAt:   item.AddedAt,
		}
		if item.Product != nil {
			line.Name = types.Fallback(&item.Product.Name, types.FallbackProductName)
			line.ImageURL = types.Deref(item.Product.ImageURL)
			line.Stock = item.Product.Stock
		}
		out.Items = append(out.Items, line)
		out.ItemCount += item.Quantity
		out.Total = out.Total.Add(line.LineTotal)
	}
	return out
}
