package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/internal/users"
	"github.com/agromarket/agromarket-backend/pkg/config"
	"github.com/agromarket/agromarket-backend/pkg/db"
	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
	"github.com/agromarket/agromarket-backend/pkg/security"
)

// RegisterService handles the signup transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
	Activity       activityRecorder
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
	activity    activityRecorder
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Activity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "activity recorder required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
		activity:    params.Activity,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username, email and password are required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		taken, err := userRepo.UsernameTaken(ctx, username, uuid.Nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeDuplicate, "username already taken")
		}
		taken, err = userRepo.EmailTaken(ctx, email, uuid.Nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeDuplicate, "email already registered")
		}

		role, err := userRepo.EnsureRole(ctx, enums.RoleCustomer)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve customer role")
		}

		user := &models.User{
			Username:          username,
			Email:             email,
			PasswordHash:      passwordHash,
			RoleID:            role.ID,
			IsPendingApproval: true,
		}
		if _, err := userRepo.Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeDuplicate, err, "username or email already taken")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		user.Role = role
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, created.ID, enums.ActivityRegistered)
	return users.FromModel(created), nil
}
