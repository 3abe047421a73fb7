package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agromarket/agromarket-backend/pkg/db/models"
)

// Repository persists carts and their lines.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByUser returns the user's cart with its lines and products, or
// gorm.ErrRecordNotFound.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
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

// GetOrCreate returns the user's cart, inserting an empty one when absent.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := r.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	fresh := &models.Cart{UserID: userID}
	if err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(fresh).Error; err != nil {
		return nil, err
	}
	return r.FindByUser(ctx, userID)
}

func (r *Repository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *Repository) SetQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", itemID).Update("quantity", quantity).Error
}

// DeleteItem removes one line and reports whether it existed.
func (r *Repository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID).Delete(&models.CartItem{})
	return res.RowsAffected > 0, res.Error
}

// Clear removes every line of the cart and returns how many went.
func (r *Repository) Clear(ctx context.Context, cartID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
