package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agromarket/agromarket-backend/pkg/logger"
)

type fakeSweeper struct {
	calledAt time.Time
	deleted  int64
	err      error
}

func (f *fakeSweeper) Sweep(_ context.Context, now time.Time) (int64, error) {
	f.calledAt = now
	return f.deleted, f.err
}

type fakePruner struct {
	olderThan time.Duration
	err       error
}

func (f *fakePruner) Prune(_ context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return 3, f.err
}

func TestSessionSweepJobUsesClock(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	sweeper := &fakeSweeper{deleted: 2}
	jobIface, err := NewSessionSweepJob(logger.Nop(), sweeper)
	if err != nil {
		t.Fatalf("NewSessionSweepJob: %v", err)
	}
	job := jobIface.(*sessionSweepJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sweeper.calledAt.Equal(now) {
		t.Fatalf("expected sweep at %s, got %s", now, sweeper.calledAt)
	}

	sweeper.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected sweep error to propagate")
	}
}

func TestActivityRetentionJobDefaultsRetention(t *testing.T) {
	pruner := &fakePruner{}
	job, err := NewActivityRetentionJob(logger.Nop(), pruner, 0)
	if err != nil {
		t.Fatalf("NewActivityRetentionJob: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pruner.olderThan != defaultActivityRetention {
		t.Fatalf("expected default retention, got %s", pruner.olderThan)
	}
}

func TestJobConstructorsValidate(t *testing.T) {
	if _, err := NewSessionSweepJob(nil, &fakeSweeper{}); err == nil {
		t.Fatal("expected logger error")
	}
	if _, err := NewActivityRetentionJob(logger.Nop(), nil, time.Hour); err == nil {
		t.Fatal("expected activity error")
	}
}

type fakeRedis struct {
	values map[string]string
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func TestRedisLockExcludesSecondOwner(t *testing.T) {
	store := &fakeRedis{values: map[string]string{}}
	first, _ := NewRedisLock(store, "am:lock:cron", time.Minute)
	second, _ := NewRedisLock(store, "am:lock:cron", time.Minute)

	if ok, _ := first.Acquire(context.Background()); !ok {
		t.Fatal("first acquire should succeed")
	}
	if ok, _ := second.Acquire(context.Background()); ok {
		t.Fatal("second acquire should fail while held")
	}
	if err := second.Release(context.Background()); err != nil {
		t.Fatalf("release by non-owner: %v", err)
	}
	if _, ok := store.values["am:lock:cron"]; !ok {
		t.Fatal("non-owner release must not delete the lock")
	}
	if err := first.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := second.Acquire(context.Background()); !ok {
		t.Fatal("acquire after release should succeed")
	}
}
