package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/internal/cart"
	"github.com/agromarket/agromarket-backend/pkg/db"
	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
	"github.com/agromarket/agromarket-backend/pkg/logger"
	"github.com/agromarket/agromarket-backend/pkg/pagination"
	"github.com/agromarket/agromarket-backend/pkg/types"
)

// Service exposes order placement plus customer and admin reads.
type Service interface {
	Place(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	Confirm(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListAll(ctx context.Context, params pagination.Params, status string) (*types.Page[OrderDTO], error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderDTO, error)
}

type ServiceParams struct {
	DB       *db.Client
	Repo     Repository
	Activity activityRecorder
	Metrics  metricsRecorder
	Logger   *logger.Logger
	Clock    func() time.Time
}

type service struct {
	db       *db.Client
	repo     Repository
	activity activityRecorder
	metrics  metricsRecorder
	logg     *logger.Logger
	now      func() time.Time
}

type noopMetrics struct{}

func (noopMetrics) IncPlaced()         {}
func (noopMetrics) IncRejected(string) {}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	svc := &service{
		db:       params.DB,
		repo:     params.Repo,
		activity: params.Activity,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      params.Clock,
	}
	if svc.metrics == nil {
		svc.metrics = noopMetrics{}
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// Place converts the caller's cart into a Pending order. Reading the cart,
// checking and decrementing stock, writing the order and clearing the cart
// commit together or not at all.
func (s *service) Place(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*OrderDTO, error) {
	address := strings.TrimSpace(req.DeliveryAddress)
	slot := strings.TrimSpace(req.DeliveryTimeSlot)
	if address == "" || slot == "" {
		s.metrics.IncRejected("validation")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address and time slot are required")
	}

	var orderID uuid.UUID
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		userCart, err := repo.LoadCart(ctx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if userCart == nil || len(userCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		for _, line := range userCart.Items {
			if line.Product != nil && line.Product.Stock < line.Quantity {
				return cart.StockError(line.Product.ID, line.Product.Name, line.Quantity, line.Product.Stock)
			}
		}

		order := &models.Order{
			UserID:            userID,
			OrderDate:         s.now().UTC(),
			Status:            enums.OrderStatusPending,
			DeliveryAddress:   address,
			DeliveryTimeSlot:  slot,
			DeliveryDate:      req.DeliveryDate,
			DeliveryLatitude:  req.DeliveryLatitude,
			DeliveryLongitude: req.DeliveryLongitude,
			Items:             make([]models.OrderItem, 0, len(userCart.Items)),
		}
		total := decimal.Zero
		for _, line := range userCart.Items {
			item := models.OrderItem{Quantity: line.Quantity, UnitPrice: line.UnitPrice()}
			if line.Product != nil {
				productID := line.Product.ID
				name := line.Product.Name
				item.ProductID = &productID
				item.ProductName = &name
			}
			total = total.Add(item.LineTotal())
			order.Items = append(order.Items, item)
		}
		order.TotalAmount = total

		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		for _, line := range userCart.Items {
			if line.Product == nil {
				continue
			}
			ok, err := repo.DecrementStock(ctx, line.Product.ID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
			}
			if !ok {
				// another placement took the stock after the check above
				available, err := repo.CurrentStock(ctx, line.Product.ID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read stock")
				}
				return cart.StockError(line.Product.ID, line.Product.Name, line.Quantity, available)
			}
		}

		if err := repo.ClearCart(ctx, userCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		s.metrics.IncRejected(rejectReason(err))
		return nil, err
	}

	s.metrics.IncPlaced()
	s.activity.Record(ctx, userID, enums.ActivityPlacedOrder)
	logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": orderID.String()})
	s.logg.Info(logCtx, "orders.placed")
	return s.load(ctx, orderID)
}

func rejectReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "internal"
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	dto := FromModel(order)
	return &dto, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return FromModels(rows), nil
}

// Get hides other users' orders behind not found.
func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	dto, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if dto.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return dto, nil
}

func (s *service) Confirm(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	current, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if current.Status != enums.OrderStatusPending {
		return nil, transitionError(current.Status, enums.OrderStatusConfirmed)
	}
	if err := s.transition(ctx, orderID, current.Status, enums.OrderStatusConfirmed); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, userID, enums.ActivityConfirmedOrder)
	return s.load(ctx, orderID)
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, status string) (*types.Page[OrderDTO], error) {
	filter := ListFilter{Limit: params.Limit}
	if strings.TrimSpace(status) != "" {
		parsed, err := enums.ParseOrderStatus(status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter.Status = &parsed
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter.Cursor = cursor

	rows, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	page, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.OrderDate, ID: o.ID}
	})
	return &types.Page[OrderDTO]{Items: FromModels(page), NextCursor: next}, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderDTO, error) {
	next, err := enums.ParseOrderStatus(status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
	}
	current, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.Status == next {
		return current, nil
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, transitionError(current.Status, next)
	}
	if err := s.transition(ctx, orderID, current.Status, next); err != nil {
		return nil, err
	}
	return s.load(ctx, orderID)
}

func (s *service) transition(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) error {
	ok, err := s.repo.UpdateStatus(ctx, orderID, from, to)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently")
	}
	return nil
}

func transitionError(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithDetails(map[string]string{"from": from.String(), "to": to.String()})
}
