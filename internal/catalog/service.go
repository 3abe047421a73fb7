package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/pkg/db"
	"github.com/agromarket/agromarket-backend/pkg/db/models"
	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
	"github.com/agromarket/agromarket-backend/pkg/logger"
	"github.com/agromarket/agromarket-backend/pkg/storage/s3"
)

const defaultKeyPrefix = "products"

// Service manages the product catalog and its categories.
type Service interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, req CategoryRequest) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req CategoryRequest) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type repository interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	SaveProduct(ctx context.Context, product *models.Product) error
	ClearProductImage(ctx context.Context, id uuid.UUID) error
	DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CategoryNameTaken(ctx context.Context, name string, except uuid.UUID) (bool, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	RenameCategory(ctx context.Context, id uuid.UUID, name string) (bool, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) (bool, error)
}

type imageStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(raw string) (string, bool)
}

type ServiceParams struct {
	Repo      repository
	Images    imageStore
	KeyPrefix string
	Logger    *logger.Logger
}

type service struct {
	repo      repository
	images    imageStore
	keyPrefix string
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	if params.Images == nil {
		return nil, fmt.Errorf("image store is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	prefix := strings.Trim(params.KeyPrefix, "/")
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &service{repo: params.Repo, images: params.Images, keyPrefix: prefix, logg: params.Logger}, nil
}

func (s *service) ListProducts(ctx context.Context, filter ProductFilter) ([]ProductDTO, error) {
	rows, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return ProductsFromModels(rows), nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ProductFromModel(product)
	return &dto, nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func (s *service) validateInput(ctx context.Context, input *ProductInput) error {
	input.Name = strings.TrimSpace(input.Name)
	details := map[string]string{}
	if input.Name == "" {
		details["name"] = "is required"
	}
	if !input.Price.IsPositive() {
		details["price"] = "must be greater than zero"
	}
	if input.Stock < 0 {
		details["stock"] = "must be zero or greater"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(details)
	}
	if input.CategoryID != nil {
		if _, err := s.repo.FindCategory(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist").
					WithDetails(map[string]string{"category_id": "unknown category"})
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
		}
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	if err := s.validateInput(ctx, &input); err != nil {
		return nil, err
	}
	product := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price.Round(2),
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
	}
	if input.Image != nil {
		if err := s.storeImage(ctx, product, input.Image); err != nil {
			return nil, err
		}
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		s.discardImage(ctx, product)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateInput(ctx, &input); err != nil {
		return nil, err
	}

	if input.Image != nil {
		// the previous object goes first; a failed upload leaves the product
		// without an image and otherwise untouched
		if err := s.removeImage(ctx, product); err != nil {
			return nil, err
		}
		product.ImageURL, product.ImageKey = nil, nil
		if err := s.storeImage(ctx, product, input.Image); err != nil {
			if clearErr := s.repo.ClearProductImage(ctx, product.ID); clearErr != nil {
				s.logg.Error(ctx, "catalog.clear_image_failed", clearErr)
			}
			return nil, err
		}
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price.Round(2)
	product.Stock = input.Stock
	product.CategoryID = input.CategoryID
	product.Category = nil

	if err := s.repo.SaveProduct(ctx, product); err != nil {
		if input.Image != nil {
			s.discardImage(ctx, product)
			if clearErr := s.repo.ClearProductImage(ctx, product.ID); clearErr != nil {
				s.logg.Error(ctx, "catalog.clear_image_failed", clearErr)
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.removeImage(ctx, product); err != nil {
		return err
	}
	deleted, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) storeImage(ctx context.Context, product *models.Product, image *ImageUpload) error {
	if image.Body == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "image body is empty")
	}
	key := s3.ObjectKey(s.keyPrefix, image.Filename)
	url, err := s.images.Put(ctx, key, image.Body, image.Size, image.ContentType)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload product image")
	}
	product.ImageURL = &url
	product.ImageKey = &key
	return nil
}

func (s *service) imageKey(product *models.Product) (string, bool) {
	if product.ImageKey != nil && *product.ImageKey != "" {
		return *product.ImageKey, true
	}
	if product.ImageURL != nil && *product.ImageURL != "" {
		return s.images.KeyFromURL(*product.ImageURL)
	}
	return "", false
}

func (s *service) removeImage(ctx context.Context, product *models.Product) error {
	key, ok := s.imageKey(product)
	if !ok {
		return nil
	}
	if err := s.images.Delete(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product image")
	}
	return nil
}

// discardImage rolls back an upload whose row never made it to the database.
func (s *service) discardImage(ctx context.Context, product *models.Product) {
	if product.ImageKey == nil {
		return
	}
	if err := s.images.Delete(ctx, *product.ImageKey); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "image_key", *product.ImageKey), "catalog.orphaned_image")
	}
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return CategoriesFromModels(rows), nil
}

func (s *service) checkCategoryName(ctx context.Context, name string, except uuid.UUID) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	taken, err := s.repo.CategoryNameTaken(ctx, name, except)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check category name")
	}
	if taken {
		return "", pkgerrors.New(pkgerrors.CodeDuplicate, "category already exists")
	}
	return name, nil
}

func (s *service) CreateCategory(ctx context.Context, req CategoryRequest) (*CategoryDTO, error) {
	name, err := s.checkCategoryName(ctx, req.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	category := &models.Category{Name: name}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDuplicate, err, "category already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	dto := CategoryFromModel(category)
	return &dto, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, req CategoryRequest) (*CategoryDTO, error) {
	name, err := s.checkCategoryName(ctx, req.Name, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.RenameCategory(ctx, id, name)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDuplicate, err, "category already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rename category")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return &CategoryDTO{ID: id, Name: name}, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.DeleteCategory(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete category")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}
