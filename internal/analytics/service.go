package analytics

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/agromarket/agromarket-backend/pkg/enums"
	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
	"github.com/agromarket/agromarket-backend/pkg/types"
)

const topProductsLimit = 5

// Service builds the admin dashboard summary.
type Service interface {
	Summary(ctx context.Context) (*Summary, error)
}

type Summary struct {
	TotalUsers    int64           `json:"total_users"`
	TotalOrders   int64           `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	PendingOrders int64           `json:"pending_orders"`
	TopProducts   []TopProduct    `json:"top_products"`
}

type TopProduct struct {
	Name      string `json:"name"`
	TotalSold int64  `json:"total_sold"`
}

type repository interface {
	CountUsers(ctx context.Context) (int64, error)
	CountOrders(ctx context.Context, status *enums.OrderStatus) (int64, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
	TopProducts(ctx context.Context, limit int) ([]productTotal, error)
}

type service struct {
	repo repository
}

func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	var out Summary
	var err error

	if out.TotalUsers, err = s.repo.CountUsers(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count users")
	}
	if out.TotalOrders, err = s.repo.CountOrders(ctx, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
	}
	pending := enums.OrderStatusPending
	if out.PendingOrders, err = s.repo.CountOrders(ctx, &pending); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count pending orders")
	}
	if out.TotalRevenue, err = s.repo.Revenue(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum revenue")
	}

	top, err := s.repo.TopProducts(ctx, topProductsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "top products")
	}
	out.TopProducts = make([]TopProduct, 0, len(top))
	for _, row := range top {
		out.TopProducts = append(out.TopProducts, TopProduct{
			Name:      types.Fallback(row.ProductName, types.FallbackOrderItem),
			TotalSold: row.TotalSold,
		})
	}
	return &out, nil
}
