package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsContainSchemas(t *testing.T) {
	cases := map[string][]string{
		"create_roles_and_users": {
			"CREATE TABLE IF NOT EXISTS roles",
			"CREATE TABLE IF NOT EXISTS users",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email",
			"('Admin'), ('Customer')",
		},
		"create_catalog": {
			"CREATE TABLE IF NOT EXISTS categories",
			"CREATE TABLE IF NOT EXISTS products",
			"CHECK (stock >= 0)",
			"ON DELETE SET NULL",
		},
		"create_carts": {
			"CREATE TABLE IF NOT EXISTS carts",
			"CREATE TABLE IF NOT EXISTS cart_items",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_cart_product",
		},
		"create_orders": {
			"CREATE TABLE IF NOT EXISTS orders",
			"CREATE TABLE IF NOT EXISTS order_items",
			"'Pending', 'Confirmed', 'Shipped', 'Delivered', 'Cancelled'",
			"product_name text",
		},
		"create_user_activities": {
			"CREATE TABLE IF NOT EXISTS user_activities",
		},
		"create_sessions": {
			"CREATE TABLE IF NOT EXISTS sessions",
			"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at",
		},
	}

	for suffix, checks := range cases {
		content := readMigration(t, suffix)
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", suffix, sub)
			}
		}
	}
}

func TestCatalogMigrationSeedsCategories(t *testing.T) {
	content := readMigration(t, "create_catalog")
	for _, name := range migrate.SeedCategories {
		if !strings.Contains(content, "('"+name+"')") {
			t.Errorf("seed category %q missing from migration", name)
		}
	}
}

func TestValidateDirAcceptsRepoMigrations(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.ErrorContains(t, migrate.ValidateDir(dir), "invalid migration filename")

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_missing_down.sql"), []byte("-- +goose Up\n"), 0o644))
	require.ErrorContains(t, migrate.ValidateDir(dir), "missing \"-- +goose Down\"")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Product Tags!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_product_tags.sql"), path)
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestAutoMigrateModelsSeedsIdempotently(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	require.NoError(t, migrate.AutoMigrateModels(ctx, conn))
	require.NoError(t, migrate.AutoMigrateModels(ctx, conn))

	var roles, categories int64
	require.NoError(t, conn.Model(&models.Role{}).Count(&roles).Error)
	require.NoError(t, conn.Model(&models.Category{}).Count(&categories).Error)
	require.EqualValues(t, 2, roles)
	require.EqualValues(t, len(migrate.SeedCategories), categories)
}
