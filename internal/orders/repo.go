package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	"github.com/agromarket/agromarket-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) LoadCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("added_at ASC").Order("id ASC") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// DecrementStock subtracts quantity only while enough stock remains, so two
// concurrent placements can never drive stock negative.
func (r *repository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	return res.RowsAffected == 1, res.Error
}

func (r *repository) CurrentStock(ctx context.Context, productID uuid.UUID) (int, error) {
	var stock int
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Select("stock").Scan(&stock).Error
	return stock, err
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("User").Create(order).Error
}

func (r *repository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.preloaded(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.preloaded(ctx).
		Where("user_id = ?", userID).
		Order("order_date DESC").Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListAll(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	q := r.preloaded(ctx)
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	var rows []models.Order
	err := q.Scopes(pagination.Scope("order_date", filter.Cursor, filter.Limit)).Find(&rows).Error
	return rows, err
}

// UpdateStatus moves an order from one status to another; false means the
// order was not in from, either because it is missing or it changed meanwhile.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to})
	return res.RowsAffected == 1, res.Error
}
