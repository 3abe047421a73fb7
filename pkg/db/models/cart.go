package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the single open basket a user owns.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// CartItem is one product line inside a cart.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID    uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Quantity  int       `gorm:"column:quantity;not null;check:quantity > 0"`
	AddedAt   time.Time `gorm:"column:added_at;autoCreateTime"`
}

// UnitPrice returns the live product price or zero when the product is missing.
func (c CartItem) UnitPrice() decimal.Decimal {
	if c.Product == nil {
		return decimal.Zero
	}
	return c.Product.Price
}

// LineTotal is unit price times quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.UnitPrice().Mul(decimal.NewFromInt(int64(c.Quantity)))
}
