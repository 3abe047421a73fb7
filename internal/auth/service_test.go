package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/internal/users"
	"github.com/agromarket/agromarket-backend/pkg/config"
	"github.com/agromarket/agromarket-backend/pkg/db"
	"github.com/agromarket/agromarket-backend/pkg/db/dbtest"
	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
	"github.com/agromarket/agromarket-backend/pkg/logger"
	"github.com/agromarket/agromarket-backend/pkg/session"
)

var testPasswordConfig = config.PasswordConfig{ArgonMemoryKB: 8 * 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

type stubActivity struct {
	actions []enums.ActivityAction
}

func (s *stubActivity) Record(_ context.Context, _ uuid.UUID, action enums.ActivityAction) {
	s.actions = append(s.actions, action)
}

type fixture struct {
	conn     *gorm.DB
	client   *db.Client
	activity *stubActivity
	sessions *session.Manager
	register RegisterService
	auth     Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Client(t)
	store, err := session.NewDBStore(client.DB())
	require.NoError(t, err)
	manager, err := session.NewManager(store, 0)
	require.NoError(t, err)

	activity := &stubActivity{}
	reg, err := NewRegisterService(RegisterServiceParams{DB: client, PasswordConfig: testPasswordConfig, Activity: activity})
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{UserRepo: users.NewRepository(client.DB()), SessionManager: manager, Activity: activity})
	require.NoError(t, err)

	return &fixture{conn: client.DB(), client: client, activity: activity, sessions: manager, register: reg, auth: svc}
}

func (f *fixture) approve(t *testing.T, username string) {
	t.Helper()
	require.NoError(t, f.conn.Model(&models.User{}).Where("username = ?", username).
		UpdateColumn("is_pending_approval", false).Error)
}

func TestRegisterCreatesPendingCustomer(t *testing.T) {
	f := newFixture(t)

	dto, err := f.register.Register(context.Background(), RegisterRequest{Username: "farmer", Email: "Farmer@Example.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "farmer@example.com", dto.Email)
	require.Equal(t, "Customer", dto.Role)
	require.True(t, dto.IsPendingApproval)

	var count int64
	require.NoError(t, f.conn.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
	require.Equal(t, []enums.ActivityAction{enums.ActivityRegistered}, f.activity.actions)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.register.Register(ctx, RegisterRequest{Username: "farmer", Email: "farmer@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.register.Register(ctx, RegisterRequest{Username: "farmer", Email: "other@example.com", Password: "secret1"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicate))

	_, err = f.register.Register(ctx, RegisterRequest{Username: "other", Email: "FARMER@example.com", Password: "secret1"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicate))

	_, err = f.register.Register(ctx, RegisterRequest{Username: "other", Email: "", Password: "secret1"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLoginRejectsPendingThenBlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.register.Register(ctx, RegisterRequest{Username: "farmer", Email: "farmer@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, f.conn.Model(&models.User{}).Where("username = ?", "farmer").UpdateColumn("is_blocked", true).Error)

	_, err = f.auth.Login(ctx, LoginRequest{Username: "farmer", Password: "secret1"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	require.Equal(t, pendingApprovalMessage, pkgerrors.As(err).Message())

	f.approve(t, "farmer")
	_, err = f.auth.Login(ctx, LoginRequest{Username: "farmer", Password: "secret1"})
	require.Equal(t, blockedMessage, pkgerrors.As(err).Message())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.register.Register(ctx, RegisterRequest{Username: "farmer", Email: "farmer@example.com", Password: "secret1"})
	require.NoError(t, err)
	f.approve(t, "farmer")

	for _, req := range []LoginRequest{
		{Username: "farmer", Password: "wrong"},
		{Username: "nobody", Password: "secret1"},
	} {
		_, err := f.auth.Login(ctx, req)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
		require.Equal(t, invalidCredentialsMessage, pkgerrors.As(err).Message())
	}
}

func TestLoginSessionRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.register.Register(ctx, RegisterRequest{Username: "farmer", Email: "farmer@example.com", Password: "secret1"})
	require.NoError(t, err)
	f.approve(t, "farmer")

	res, err := f.auth.Login(ctx, LoginRequest{Username: "farmer", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, res.SessionKey)

	payload, err := f.sessions.Load(ctx, res.SessionKey)
	require.NoError(t, err)
	require.Equal(t, "farmer", payload.Username)
	require.Equal(t, "Customer", payload.Role)

	id, err := f.auth.CheckSession(ctx, res.SessionKey)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, id.UserID)

	require.NoError(t, f.auth.Logout(ctx, res.SessionKey))
	_, err = f.auth.CheckSession(ctx, res.SessionKey)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	require.Equal(t, []enums.ActivityAction{enums.ActivityRegistered, enums.ActivityLoggedIn, enums.ActivityLoggedOut}, f.activity.actions)
}

func TestCheckSessionDropsBlockedUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := dbtest.MustUser(t, f.conn, "grower", enums.RoleCustomer)
	key, err := f.sessions.Create(ctx, session.Payload{UserID: user.ID, Username: user.Username, Role: "Customer"})
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(user).UpdateColumn("is_blocked", true).Error)

	_, err = f.auth.CheckSession(ctx, key)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	_, err = f.sessions.Load(ctx, key)
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestSeedAdminCreatesApprovedAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := config.AdminConfig{SeedEnabled: true, Username: "root", Email: "root@example.com", Password: "rootpass"}

	require.NoError(t, SeedAdmin(ctx, f.client, cfg, testPasswordConfig, logger.Nop()))
	require.NoError(t, SeedAdmin(ctx, f.client, cfg, testPasswordConfig, logger.Nop()))

	res, err := f.auth.Login(ctx, LoginRequest{Username: "root", Password: "rootpass"})
	require.NoError(t, err)
	require.Equal(t, "Admin", res.User.Role)

	var admins int64
	require.NoError(t, f.conn.Model(&models.Role{}).Where("name = ?", enums.RoleAdmin).Count(&admins).Error)
	require.EqualValues(t, 1, admins)
}

func TestNewServiceValidates(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error without dependencies")
	}
	if _, err := NewRegisterService(RegisterServiceParams{}); err == nil {
		t.Fatal("expected error without db")
	}
}

func TestSeedAdminRequiresPasswordForNewAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := config.AdminConfig{SeedEnabled: true, Username: "root", Email: "root@example.com"}

	err := SeedAdmin(ctx, f.client, cfg, testPasswordConfig, logger.Nop())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	var count int64
	require.NoError(t, f.conn.Model(&models.User{}).Where("username = ?", "root").Count(&count).Error)
	require.Zero(t, count)

	cfg.Password = "rootpass"
	require.NoError(t, SeedAdmin(ctx, f.client, cfg, testPasswordConfig, logger.Nop()))

	cfg.Password = ""
	require.NoError(t, SeedAdmin(ctx, f.client, cfg, testPasswordConfig, logger.Nop()), "existing admin keeps its password")
	_, err = f.auth.Login(ctx, LoginRequest{Username: "root", Password: "rootpass"})
	require.NoError(t, err)
}
