package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
	"github.com/agromarket/agromarket-backend/pkg/logger"
	"github.com/agromarket/agromarket-backend/pkg/types"
)

// RecentWindow bounds what ListRecent returns.
const RecentWindow = 7 * 24 * time.Hour

// Service records and reads the user activity log.
type Service interface {
	Record(ctx context.Context, userID uuid.UUID, action enums.ActivityAction)
	ListRecent(ctx context.Context, userID uuid.UUID) ([]EntryDTO, error)
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// EntryDTO is one activity line as returned to clients.
type EntryDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

type repository interface {
	Create(ctx context.Context, entry *models.UserActivity) error
	ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.UserActivity, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type ServiceParams struct {
	Repo   repository
	Logger *logger.Logger
	Clock  func() time.Time
}

type service struct {
	repo repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("activity repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, logg: params.Logger, now: now}, nil
}

// Record is best-effort: a failure is logged and swallowed.
func (s *service) Record(ctx context.Context, userID uuid.UUID, action enums.ActivityAction) {
	entry := &models.UserActivity{
		UserID:    userID,
		Action:    action.String(),
		Timestamp: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		fields := map[string]any{"action": entry.Action, "activity_user_id": userID.String(), "error": err.Error()}
		s.logg.Warn(s.logg.WithFields(ctx, fields), "activity.record_failed")
	}
}

func (s *service) ListRecent(ctx context.Context, userID uuid.UUID) ([]EntryDTO, error) {
	rows, err := s.repo.ListSince(ctx, userID, s.now().UTC().Add(-RecentWindow))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list activity")
	}
	out := make([]EntryDTO, 0, len(rows))
	for _, row := range rows {
		var username *string
		if row.User != nil {
			username = &row.User.Username
		}
		out = append(out, EntryDTO{
			ID:        row.ID,
			UserID:    row.UserID,
			Username:  types.Fallback(username, types.FallbackUsername),
			Action:    row.Action,
			Timestamp: row.Timestamp,
		})
	}
	return out, nil
}

// Prune deletes entries older than the retention window.
func (s *service) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "retention must be positive")
	}
	return s.repo.DeleteBefore(ctx, s.now().UTC().Add(-olderThan))
}
