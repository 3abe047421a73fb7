package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/agromarket/agromarket-backend/pkg/logger"
)

const defaultActivityRetention = 90 * 24 * time.Hour

type sessionSweeper interface {
	Sweep(ctx context.Context, now time.Time) (int64, error)
}

// NewSessionSweepJob purges expired session rows.
func NewSessionSweepJob(logg *logger.Logger, store sessionSweeper) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	return &sessionSweepJob{logg: logg, store: store, now: time.Now}, nil
}

type sessionSweepJob struct {
	logg  *logger.Logger
	store sessionSweeper
	now   func() time.Time
}

func (j *sessionSweepJob) Name() string { return "session-sweep" }

func (j *sessionSweepJob) Run(ctx context.Context) error {
	deleted, err := j.store.Sweep(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("session sweep: %w", err)
	}
	if deleted > 0 {
		j.logg.Info(j.logg.WithField(ctx, "rows_deleted", deleted), "cron.sessions_swept")
	}
	return nil
}

type activityPruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// NewActivityRetentionJob drops activity rows older than retention.
func NewActivityRetentionJob(logg *logger.Logger, activity activityPruner, retention time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if activity == nil {
		return nil, fmt.Errorf("activity service required")
	}
	if retention <= 0 {
		retention = defaultActivityRetention
	}
	return &activityRetentionJob{logg: logg, activity: activity, retention: retention}, nil
}

type activityRetentionJob struct {
	logg      *logger.Logger
	activity  activityPruner
	retention time.Duration
}

func (j *activityRetentionJob) Name() string { return "activity-retention" }

func (j *activityRetentionJob) Run(ctx context.Context) error {
	deleted, err := j.activity.Prune(ctx, j.retention)
	if err != nil {
		return fmt.Errorf("activity retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"retention_hours": int(j.retention.Hours()),
		"rows_deleted":    deleted,
	})
	j.logg.Info(logCtx, "cron.activity_pruned")
	return nil
}
