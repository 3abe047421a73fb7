package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/pkg/db"
	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
)

// Service manages the caller's cart.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartDTO, error)
	Update(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartDTO, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type activityRecorder interface {
	Record(ctx context.Context, userID uuid.UUID, action enums.ActivityAction)
}

type ServiceParams struct {
	DB       *db.Client
	Activity activityRecorder
}

type service struct {
	db       *db.Client
	activity activityRecorder
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder is required")
	}
	return &service{db: params.DB, activity: params.Activity}, nil
}

func (s *service) repo() *Repository {
	return NewRepository(s.db.DB())
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo().GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return FromModel(cart), nil
}

// errLineRaced marks a first add that lost the insert to a concurrent add of
// the same product.
var errLineRaced = errors.New("cart line created concurrently")

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	err := retryOnLineRace(func() error {
		return s.addLine(ctx, userID, productID, quantity)
	})
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, userID, enums.ActivityAddedToCart)
	return s.Get(ctx, userID)
}

// retryOnLineRace reruns fn once so a raced first add merges into the line the
// other request created.
func retryOnLineRace(fn func() error) error {
	err := fn()
	if errors.Is(err, errLineRaced) {
		err = fn()
	}
	if errors.Is(err, errLineRaced) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart changed concurrently, please retry")
	}
	return err
}

func (s *service) addLine(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		product, err := loadProduct(ctx, repo, productID)
		if err != nil {
			return err
		}
		cart, err := repo.GetOrCreate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}

		item, err := repo.FindItem(ctx, cart.ID, productID)
		switch {
		case err == nil:
			merged := item.Quantity + quantity
			if err := checkStock(product, merged); err != nil {
				return err
			}
			if err := repo.SetQuantity(ctx, item.ID, merged); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := checkStock(product, quantity); err != nil {
				return err
			}
			return createLine(ctx, repo, &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity})
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
		}
		return nil
	})
}

func createLine(ctx context.Context, repo *Repository, item *models.CartItem) error {
	if err := repo.CreateItem(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "") {
			return errLineRaced
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart line")
	}
	return nil
}

func (s *service) Update(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartDTO, error) {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		cart, err := existingCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		item, err := repo.FindItem(ctx, cart.ID, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
		}

		if quantity <= 0 {
			if _, err := repo.DeleteItem(ctx, cart.ID, productID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
			}
			return nil
		}

		product, err := loadProduct(ctx, repo, productID)
		if err != nil {
			return err
		}
		if err := checkStock(product, quantity); err != nil {
			return err
		}
		if err := repo.SetQuantity(ctx, item.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, userID, enums.ActivityUpdatedCart)
	return s.Get(ctx, userID)
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	repo := s.repo()
	cart, err := existingCart(ctx, repo, userID)
	if err != nil {
		return nil, err
	}
	removed, err := repo.DeleteItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
	}
	s.activity.Record(ctx, userID, enums.ActivityRemovedFromCart)
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	repo := s.repo()
	cart, err := existingCart(ctx, repo, userID)
	if err != nil {
		return err
	}
	removed, err := repo.Clear(ctx, cart.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
	}
	s.activity.Record(ctx, userID, enums.ActivityClearedCart)
	return nil
}

func existingCart(ctx context.Context, repo *Repository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

func loadProduct(ctx context.Context, repo *Repository, productID uuid.UUID) (*models.Product, error) {
	product, err := repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

// StockError builds the insufficient-stock error shared with order placement.
func StockError(productID uuid.UUID, name string, requested, available int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s: %d available", name, available)).
		WithDetails(map[string]any{
			"product_id": productID,
			"product":    name,
			"requested":  requested,
			"available":  available,
		})
}

func checkStock(product *models.Product, quantity int) error {
	if quantity > product.Stock {
		return StockError(product.ID, product.Name, quantity, product.Stock)
	}
	return nil
}
