package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/internal/users"
	"github.com/agromarket/agromarket-backend/pkg/config"
	"github.com/agromarket/agromarket-backend/pkg/db"
	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
	"github.com/agromarket/agromarket-backend/pkg/logger"
	"github.com/agromarket/agromarket-backend/pkg/security"
)

// SeedAdmin guarantees the Admin role and a usable bootstrap administrator.
// Creating the account requires a configured password; an existing account
// keeps its password but is promoted, approved and unblocked.
func SeedAdmin(ctx context.Context, client *db.Client, cfg config.AdminConfig, pwCfg config.PasswordConfig, logg *logger.Logger) error {
	if client == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	username := strings.TrimSpace(cfg.Username)
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if username == "" || email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "admin username and email are required")
	}

	return client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		role, err := repo.EnsureRole(ctx, enums.RoleAdmin)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ensure admin role")
		}

		existing, err := repo.FindByUsername(ctx, username)
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			if cfg.Password == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "AGROMARKET_ADMIN_PASSWORD is required to create the admin user")
			}
			hash, err := security.HashPassword(cfg.Password, pwCfg)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash admin password")
			}
			existing, err = repo.Create(ctx, &models.User{
				Username:     username,
				Email:        email,
				PasswordHash: hash,
				RoleID:       role.ID,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create admin user")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup admin user")
		}

		// bool columns with defaults are skipped on insert when false
		if err := repo.UpdateFields(ctx, existing.ID, map[string]any{
			"role_id":             role.ID,
			"is_pending_approval": false,
			"is_blocked":          false,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "promote admin user")
		}
		logg.Info(logg.WithField(ctx, "username", username), "auth.admin_ready")
		return nil
	})
}
