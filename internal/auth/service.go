package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/internal/users"
	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
	"github.com/agromarket/agromarket-backend/pkg/security"
	"github.com/agromarket/agromarket-backend/pkg/session"
	"github.com/agromarket/agromarket-backend/pkg/types"
)

const (
	invalidCredentialsMessage = "invalid username or password"
	pendingApprovalMessage    = "account awaiting administrator approval"
	blockedMessage            = "account is blocked"
)

// Service defines the behavior needed by the auth controller and the session middleware.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, sessionKey string) error
	CheckSession(ctx context.Context, sessionKey string) (*Identity, error)
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type sessionManager interface {
	Create(ctx context.Context, payload session.Payload) (string, error)
	Load(ctx context.Context, key string) (*session.Payload, error)
	Touch(ctx context.Context, key string) error
	Destroy(ctx context.Context, key string) error
}

type activityRecorder interface {
	Record(ctx context.Context, userID uuid.UUID, action enums.ActivityAction)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	Activity       activityRecorder
}

type service struct {
	users    userRepository
	sessions sessionManager
	activity activityRecorder
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder is required")
	}
	return &service{
		users:    params.UserRepo,
		sessions: params.SessionManager,
		activity: params.Activity,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	key, err := s.sessions.Create(ctx, session.Payload{
		UserID:   user.ID,
		Username: user.Username,
		Role:     roleOf(user),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create session")
	}

	s.activity.Record(ctx, user.ID, enums.ActivityLoggedIn)
	return &LoginResult{SessionKey: key, User: users.FromModel(user)}, nil
}

func (s *service) authenticate(ctx context.Context, username, password string) (*models.User, error) {
	input := strings.TrimSpace(username)
	if input == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	user, err := s.users.FindByUsername(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	if err := checkStanding(user); err != nil {
		return nil, err
	}
	return user, nil
}

// checkStanding rejects pending accounts before blocked ones.
func checkStanding(user *models.User) error {
	if user.IsPendingApproval {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, pendingApprovalMessage)
	}
	if user.IsBlocked {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, blockedMessage)
	}
	return nil
}

func (s *service) Logout(ctx context.Context, sessionKey string) error {
	if strings.TrimSpace(sessionKey) == "" {
		return nil
	}
	payload, err := s.sessions.Load(ctx, sessionKey)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session")
	}
	if err := s.sessions.Destroy(ctx, sessionKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "destroy session")
	}
	if payload != nil {
		s.activity.Record(ctx, payload.UserID, enums.ActivityLoggedOut)
	}
	return nil
}

// CheckSession resolves a session key into the caller's identity. The user
// row is re-read on every call so blocking takes effect immediately; a session
// belonging to an account that can no longer authenticate is destroyed.
func (s *service) CheckSession(ctx context.Context, sessionKey string) (*Identity, error) {
	payload, err := s.sessions.Load(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session not found or expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session")
	}

	user, err := s.users.FindByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = s.sessions.Destroy(ctx, sessionKey)
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session user no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session user")
	}
	if err := checkStanding(user); err != nil {
		_ = s.sessions.Destroy(ctx, sessionKey)
		return nil, err
	}

	if err := s.sessions.Touch(ctx, sessionKey); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "refresh session")
	}
	return &Identity{UserID: user.ID, Username: user.Username, Role: roleOf(user)}, nil
}

func roleOf(user *models.User) string {
	role := user.RoleName()
	return types.Fallback(&role, types.FallbackRole)
}
