package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	"github.com/agromarket/agromarket-backend/pkg/pagination"
)

// Repository captures the persistence operations needed by order placement and reads.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	LoadCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ClearCart(ctx context.Context, cartID uuid.UUID) error
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)
	CurrentStock(ctx context.Context, productID uuid.UUID) (int, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAll(ctx context.Context, filter ListFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
}

// ListFilter narrows the admin order listing.
type ListFilter struct {
	Status *enums.OrderStatus
	Cursor *pagination.Cursor
	Limit  int
}

type activityRecorder interface {
	Record(ctx context.Context, userID uuid.UUID, action enums.ActivityAction)
}

type metricsRecorder interface {
	IncPlaced()
	IncRejected(reason string)
}
