package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/pkg/config"
	"github.com/agromarket/agromarket-backend/pkg/db"
	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
	"github.com/agromarket/agromarket-backend/pkg/pagination"
	"github.com/agromarket/agromarket-backend/pkg/security"
	"github.com/agromarket/agromarket-backend/pkg/types"
)

// Service covers profile access and account administration.
type Service interface {
	Profile(ctx context.Context, self uuid.UUID) (*UserDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, self, target uuid.UUID, req UpdateProfileRequest) (*UserDTO, error)
	ListPending(ctx context.Context) ([]UserDTO, error)
	Approve(ctx context.Context, req ApproveRequest) (*UserDTO, error)
	ListAll(ctx context.Context, params pagination.Params) (*types.Page[UserDTO], error)
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*UserDTO, error)
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UsernameTaken(ctx context.Context, username string, except uuid.UUID) (bool, error)
	EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	ListPending(ctx context.Context) ([]models.User, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.User, error)
}

type activityRecorder interface {
	Record(ctx context.Context, userID uuid.UUID, action enums.ActivityAction)
}

// ServiceParams bundles the dependencies of the users service.
type ServiceParams struct {
	Repo           userRepository
	Activity       activityRecorder
	PasswordConfig config.PasswordConfig
}

type service struct {
	repo        userRepository
	activity    activityRecorder
	passwordCfg config.PasswordConfig
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder is required")
	}
	return &service{
		repo:        params.Repo,
		activity:    params.Activity,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *service) Profile(ctx context.Context, self uuid.UUID) (*UserDTO, error) {
	return s.Get(ctx, self)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func (s *service) UpdateProfile(ctx context.Context, self, target uuid.UUID, req UpdateProfileRequest) (*UserDTO, error) {
	if self != target {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot update another user's profile")
	}
	if _, err := s.load(ctx, target); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "username cannot be empty")
		}
		taken, err := s.repo.UsernameTaken(ctx, username, target)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate, "username already taken")
		}
		fields["username"] = username
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
		}
		taken, err := s.repo.EmailTaken(ctx, email, target)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate, "email already registered")
		}
		fields["email"] = email
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := security.HashPassword(*req.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		fields["password_hash"] = hash
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateFields(ctx, target, fields); err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDuplicate, err, "username or email already taken")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
		}
		s.activity.Record(ctx, target, enums.ActivityUpdatedProfile)
	}
	return s.Get(ctx, target)
}

func (s *service) ListPending(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending users")
	}
	return FromModels(rows), nil
}

// Approve clears the pending flag. A rejection also blocks the account so it
// drops out of the pending queue without ever being able to sign in.
func (s *service) Approve(ctx context.Context, req ApproveRequest) (*UserDTO, error) {
	if req.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_id is required")
	}
	fields := map[string]any{"is_pending_approval": false, "is_blocked": !req.Approve}
	if err := s.update(ctx, req.UserID, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, req.UserID)
}

func (s *service) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*UserDTO, error) {
	if err := s.update(ctx, id, map[string]any{"is_blocked": blocked}); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	return nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) (*types.Page[UserDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	page, next := pagination.Trim(rows, params.Limit, func(u models.User) pagination.Cursor {
		return pagination.Cursor{CreatedAt: u.CreatedAt, ID: u.ID}
	})
	return &types.Page[UserDTO]{Items: FromModels(page), NextCursor: next}, nil
}
