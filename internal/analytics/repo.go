package analytics

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/internal/repo"
	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
)

// Repository runs the aggregate queries behind the admin dashboard.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

type productTotal struct {
	ProductName *string
	TotalSold   int64
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

func (r *Repository) CountOrders(ctx context.Context, status *enums.OrderStatus) (int64, error) {
	q := r.DB(ctx).Model(&models.Order{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

// Revenue sums order totals, leaving cancelled orders out.
func (r *Repository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.DB(ctx).Model(&models.Order{}).
		Where("status <> ?", enums.OrderStatusCancelled).
		Select("SUM(total_amount)").
		Row().Scan(&total)
	if err != nil || !total.Valid {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}

// TopProducts groups order lines by product and returns the best sellers.
func (r *Repository) TopProducts(ctx context.Context, limit int) ([]productTotal, error) {
	var rows []productTotal
	err := r.DB(ctx).Model(&models.OrderItem{}).
		Select("MAX(product_name) AS product_name, SUM(quantity) AS total_sold").
		Where("product_id IS NOT NULL").
		Group("product_id").
		Order("total_sold DESC").
		Order("product_name ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
