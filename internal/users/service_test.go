package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/pkg/config"
	"github.com/agromarket/agromarket-backend/pkg/db/dbtest"
	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
	"github.com/agromarket/agromarket-backend/pkg/pagination"
	"github.com/agromarket/agromarket-backend/pkg/security"
)

type recordedActivity struct {
	userID uuid.UUID
	action enums.ActivityAction
}

type stubActivity struct {
	entries []recordedActivity
}

func (s *stubActivity) Record(_ context.Context, userID uuid.UUID, action enums.ActivityAction) {
	s.entries = append(s.entries, recordedActivity{userID: userID, action: action})
}

func newTestService(t *testing.T) (Service, *gorm.DB, *stubActivity) {
	t.Helper()
	conn := dbtest.Open(t)
	activity := &stubActivity{}
	svc, err := NewService(ServiceParams{
		Repo:           NewRepository(conn),
		Activity:       activity,
		PasswordConfig: config.PasswordConfig{ArgonMemoryKB: 8 * 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
	})
	require.NoError(t, err)
	return svc, conn, activity
}

func strPtr(s string) *string { return &s }

func TestUpdateProfileRejectsOtherUsers(t *testing.T) {
	svc, conn, _ := newTestService(t)
	alice := dbtest.MustUser(t, conn, "alice", enums.RoleCustomer)
	bob := dbtest.MustUser(t, conn, "bob", enums.RoleCustomer)

	_, err := svc.UpdateProfile(context.Background(), alice.ID, bob.ID, UpdateProfileRequest{Username: strPtr("mallory")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestUpdateProfileRejectsDuplicates(t *testing.T) {
	svc, conn, activity := newTestService(t)
	alice := dbtest.MustUser(t, conn, "alice", enums.RoleCustomer)
	dbtest.MustUser(t, conn, "bob", enums.RoleCustomer)

	_, err := svc.UpdateProfile(context.Background(), alice.ID, alice.ID, UpdateProfileRequest{Username: strPtr("bob")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicate))

	_, err = svc.UpdateProfile(context.Background(), alice.ID, alice.ID, UpdateProfileRequest{Email: strPtr("BOB@example.com")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicate))
	require.Empty(t, activity.entries)
}

func TestUpdateProfileAppliesChanges(t *testing.T) {
	svc, conn, activity := newTestService(t)
	alice := dbtest.MustUser(t, conn, "alice", enums.RoleCustomer)

	got, err := svc.UpdateProfile(context.Background(), alice.ID, alice.ID, UpdateProfileRequest{
		Username: strPtr(" alice2 "),
		Email:    strPtr("Alice2@Example.com"),
		Password: strPtr("new-password"),
	})
	require.NoError(t, err)
	require.Equal(t, "alice2", got.Username)
	require.Equal(t, "alice2@example.com", got.Email)
	require.Equal(t, "Customer", got.Role)

	var stored models.User
	require.NoError(t, conn.First(&stored, "id = ?", alice.ID).Error)
	ok, err := security.VerifyPassword("new-password", stored.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, activity.entries, 1)
	require.Equal(t, enums.ActivityUpdatedProfile, activity.entries[0].action)
}

func TestApproveAndReject(t *testing.T) {
	svc, conn, _ := newTestService(t)
	pending := dbtest.MustUser(t, conn, "pending", enums.RoleCustomer)
	rejected := dbtest.MustUser(t, conn, "rejected", enums.RoleCustomer)
	require.NoError(t, conn.Model(&models.User{}).Where("id IN ?", []uuid.UUID{pending.ID, rejected.ID}).
		UpdateColumn("is_pending_approval", true).Error)

	list, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	approved, err := svc.Approve(context.Background(), ApproveRequest{UserID: pending.ID, Approve: true})
	require.NoError(t, err)
	require.False(t, approved.IsPendingApproval)
	require.False(t, approved.IsBlocked)

	denied, err := svc.Approve(context.Background(), ApproveRequest{UserID: rejected.ID, Approve: false})
	require.NoError(t, err)
	require.False(t, denied.IsPendingApproval)
	require.True(t, denied.IsBlocked)

	list, err = svc.ListPending(context.Background())
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = svc.Approve(context.Background(), ApproveRequest{UserID: uuid.New(), Approve: true})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSetBlocked(t *testing.T) {
	svc, conn, _ := newTestService(t)
	user := dbtest.MustUser(t, conn, "user", enums.RoleCustomer)

	got, err := svc.SetBlocked(context.Background(), user.ID, true)
	require.NoError(t, err)
	require.True(t, got.IsBlocked)

	got, err = svc.SetBlocked(context.Background(), user.ID, false)
	require.NoError(t, err)
	require.False(t, got.IsBlocked)
}

func TestListAllPaginates(t *testing.T) {
	svc, conn, _ := newTestService(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"u1", "u2", "u3"} {
		u := dbtest.MustUser(t, conn, name, enums.RoleCustomer)
		require.NoError(t, conn.Model(u).UpdateColumn("created_at", base.Add(time.Duration(i)*time.Hour)).Error)
	}

	first, err := svc.ListAll(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.Equal(t, "u3", first.Items[0].Username)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListAll(context.Background(), pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	require.Equal(t, "u1", second.Items[0].Username)
	require.Empty(t, second.NextCursor)

	_, err = svc.ListAll(context.Background(), pagination.Params{Cursor: "%%%"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetMissingUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
