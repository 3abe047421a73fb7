package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agromarket/agromarket-backend/internal/repo"
	"github.com/agromarket/agromarket-backend/pkg/db/models"
)

// ProductFilter narrows a product listing.
type ProductFilter struct {
	CategoryID *uuid.UUID
	Search     string
}

// Repository persists products and categories.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	q := r.DB(ctx).Preload("Category").Order("name ASC").Order("id ASC")
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	var rows []models.Product
	err := q.Find(&rows).Error
	return rows, err
}

func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Omit(clause.Associations).Create(product).Error
}

// SaveProduct writes every column, including nil optionals and zero stock.
func (r *Repository) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Omit(clause.Associations).Save(product).Error
}

// ClearProductImage drops the image reference and leaves every other column alone.
func (r *Repository) ClearProductImage(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"image_url": nil, "image_key": nil}).Error
}

func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Delete(&models.Product{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.DB(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.DB(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// CategoryNameTaken is case-insensitive and ignores the category except.
func (r *Repository) CategoryNameTaken(ctx context.Context, name string, except uuid.UUID) (bool, error) {
	q := r.DB(ctx).Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.DB(ctx).Create(category).Error
}

func (r *Repository) RenameCategory(ctx context.Context, id uuid.UUID, name string) (bool, error) {
	res := r.DB(ctx).Model(&models.Category{}).Where("id = ?", id).Update("name", name)
	return res.RowsAffected > 0, res.Error
}

// DeleteCategory detaches products explicitly before removing the row so the
// outcome does not depend on the driver enforcing ON DELETE SET NULL.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).
			Update("category_id", gorm.Expr("NULL")).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}
