package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
)

// MustRole returns the role with the given name, creating it if needed.
func MustRole(t testing.TB, conn *gorm.DB, name enums.RoleName) *models.Role {
	t.Helper()
	role := &models.Role{}
	if err := conn.Where(models.Role{Name: name}).FirstOrCreate(role).Error; err != nil {
		t.Fatalf("create role %s: %v", name, err)
	}
	return role
}

// MustUser inserts an approved, unblocked user with the given role.
func MustUser(t testing.TB, conn *gorm.DB, username string, role enums.RoleName) *models.User {
	t.Helper()
	r := MustRole(t, conn, role)
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		RoleID:       r.ID,
		Role:         r,
	}
	if err := conn.Omit("Role").Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	// gorm skips zero-valued bools that carry a default tag on insert
	if err := conn.Model(user).UpdateColumn("is_pending_approval", false).Error; err != nil {
		t.Fatalf("approve user: %v", err)
	}
	user.IsPendingApproval = false
	return user
}

// MustCategory inserts a category.
func MustCategory(t testing.TB, conn *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	if err := conn.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return category
}

// MustProduct inserts a product with the given price and stock.
func MustProduct(t testing.TB, conn *gorm.DB, name, price string, stock int, categoryID *uuid.UUID) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		CategoryID: categoryID,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
