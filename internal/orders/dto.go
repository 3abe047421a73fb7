package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	"github.com/agromarket/agromarket-backend/pkg/types"
)

// PlaceOrderRequest carries the delivery details for a new order.
type PlaceOrderRequest struct {
	DeliveryAddress   string     `json:"delivery_address" validate:"required,max=500"`
	DeliveryTimeSlot  string     `json:"delivery_time_slot" validate:"required,max=100"`
	DeliveryDate      *time.Time `json:"delivery_date,omitempty"`
	DeliveryLatitude  *float64   `json:"delivery_latitude,omitempty" validate:"omitempty,latitude"`
	DeliveryLongitude *float64   `json:"delivery_longitude,omitempty" validate:"omitempty,longitude"`
}

// UpdateStatusRequest is the admin status change body.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type OrderDTO struct {
	ID                uuid.UUID         `json:"id"`
	UserID            uuid.UUID         `json:"user_id"`
	Username          string            `json:"username"`
	OrderDate         time.Time         `json:"order_date"`
	Status            enums.OrderStatus `json:"status"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	DeliveryAddress   string            `json:"delivery_address"`
	DeliveryTimeSlot  string            `json:"delivery_time_slot"`
	DeliveryDate      *time.Time        `json:"delivery_date,omitempty"`
	DeliveryLatitude  *float64          `json:"delivery_latitude,omitempty"`
	DeliveryLongitude *float64          `json:"delivery_longitude,omitempty"`
	Items             []ItemDTO         `json:"items"`
}

type ItemDTO struct {
	ProductID   *uuid.UUID      `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

func FromModel(o *models.Order) OrderDTO {
	var username *string
	if o.User != nil {
		username = &o.User.Username
	}
	items := make([]ItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemDTO{
			ProductID:   item.ProductID,
			ProductName: types.Fallback(item.ProductName, types.FallbackOrderItem),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal(),
		})
	}
	return OrderDTO{
		ID:                o.ID,
		UserID:            o.UserID,
		Username:          types.Fallback(username, types.FallbackUsername),
		OrderDate:         o.OrderDate,
		Status:            o.Status,
		TotalAmount:       o.TotalAmount,
		DeliveryAddress:   o.DeliveryAddress,
		DeliveryTimeSlot:  o.DeliveryTimeSlot,
		DeliveryDate:      o.DeliveryDate,
		DeliveryLatitude:  o.DeliveryLatitude,
		DeliveryLongitude: o.DeliveryLongitude,
		Items:             items,
	}
}

func FromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
