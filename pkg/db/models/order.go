package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agromarket/agromarket-backend/pkg/enums"
)

// Order is immutable after placement except for Status.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID            uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	User              *User             `gorm:"foreignKey:UserID"`
	OrderDate         time.Time         `gorm:"column:order_date;not null;index"`
	Status            enums.OrderStatus `gorm:"column:status;not null;default:'Pending';index"`
	TotalAmount       decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	DeliveryAddress   string            `gorm:"column:delivery_address;not null"`
	DeliveryTimeSlot  string            `gorm:"column:delivery_time_slot;not null"`
	DeliveryDate      *time.Time        `gorm:"column:delivery_date"`
	DeliveryLatitude  *float64          `gorm:"column:delivery_latitude"`
	DeliveryLongitude *float64          `gorm:"column:delivery_longitude"`
	Items             []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots the unit price and product name at placement.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	Product     *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL"`
	ProductName *string         `gorm:"column:product_name"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
}

// LineTotal is the snapshotted unit price times quantity.
func (o OrderItem) LineTotal() decimal.Decimal {
	return o.UnitPrice.Mul(decimal.NewFromInt(int64(o.Quantity)))
}
