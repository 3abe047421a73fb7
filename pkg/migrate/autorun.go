package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agromarket/agromarket-backend/pkg/config"
	"github.com/agromarket/agromarket-backend/pkg/db"
	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	"github.com/agromarket/agromarket-backend/pkg/logger"
)

// SeedCategories mirrors the rows inserted by the catalog migration.
var SeedCategories = []string{"Vegetables", "Fruits", "Grains", "Dairy", "Seeds", "Fertilizers"}

// MaybeRunDev executes migrations automatically when the app is running in dev mode and
// the feature flag is enabled. sqlite databases get the gorm schema instead of goose.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	if cfg.DB.IsSQLite() {
		ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})
		logg.Info(ctx, "applying gorm schema (dev auto-run)")
		if err := AutoMigrateModels(ctx, client.DB()); err != nil {
			return err
		}
		logg.Info(ctx, "gorm schema applied")
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	meta := map[string]any{"env": cfg.App.Env, "dir": DefaultDir}
	ctx = logg.WithFields(ctx, meta)
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}

// AutoMigrateModels creates the schema from the gorm models and inserts the
// same seed rows as the SQL migrations.
func AutoMigrateModels(ctx context.Context, conn *gorm.DB) error {
	conn = conn.WithContext(ctx)
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	roles := []models.Role{{Name: enums.RoleAdmin}, {Name: enums.RoleCustomer}}
	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error; err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	categories := make([]models.Category, 0, len(SeedCategories))
	for _, name := range SeedCategories {
		categories = append(categories, models.Category{Name: name})
	}
	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	return nil
}
