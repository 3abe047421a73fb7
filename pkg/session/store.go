package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agromarket/agromarket-backend/pkg/db/models"
)

// DefaultExpiration applies when an entry carries no expiration options and
// is the window Refresh extends an entry by.
const DefaultExpiration = 30 * time.Minute

// Store is the key/value contract for session state.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, opts EntryOptions) error
	Remove(ctx context.Context, key string) error
	Refresh(ctx context.Context, key string) error
}

// EntryOptions controls expiry. The first non-zero field wins in the order
// absolute, relative to now, sliding; otherwise DefaultExpiration applies.
type EntryOptions struct {
	AbsoluteExpiration              *time.Time
	AbsoluteExpirationRelativeToNow time.Duration
	SlidingExpiration               time.Duration
}

// ExpiresAt resolves the expiration instant for an entry written at now.
func (o EntryOptions) ExpiresAt(now time.Time) time.Time {
	switch {
	case o.AbsoluteExpiration != nil:
		return o.AbsoluteExpiration.UTC()
	case o.AbsoluteExpirationRelativeToNow > 0:
		return now.Add(o.AbsoluteExpirationRelativeToNow)
	case o.SlidingExpiration > 0:
		return now.Add(o.SlidingExpiration)
	default:
		return now.Add(DefaultExpiration)
	}
}

// Entry is a decoded row together with its expiry.
type Entry struct {
	Value     []byte
	ExpiresAt time.Time
}

// DBStore persists session entries in the sessions table.
type DBStore struct {
	db            *gorm.DB
	now           func() time.Time
	refreshWindow time.Duration
}

// DBStoreOption customises a DBStore.
type DBStoreOption func(*DBStore)

// WithClock overrides the time source.
func WithClock(now func() time.Time) DBStoreOption {
	return func(s *DBStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRefreshWindow changes how far Refresh pushes the expiry.
func WithRefreshWindow(d time.Duration) DBStoreOption {
	return func(s *DBStore) {
		if d > 0 {
			s.refreshWindow = d
		}
	}
}

// NewDBStore binds a store to the provided connection.
func NewDBStore(db *gorm.DB, opts ...DBStoreOption) (*DBStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	s := &DBStore{db: db, now: time.Now, refreshWindow: DefaultExpiration}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *DBStore) clock() time.Time {
	return s.now().UTC()
}

// Get returns the value for key. Expired rows are reported as a miss and purged.
func (s *DBStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, ok, err := s.Lookup(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	return entry.Value, true, nil
}

// Lookup is Get that also reports the expiry instant.
func (s *DBStore) Lookup(ctx context.Context, key string) (Entry, bool, error) {
	var row models.Session
	err := s.db.WithContext(ctx).Where("id = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("load session: %w", err)
	}

	if row.ExpiresAt.Before(s.clock()) {
		if err := s.db.WithContext(ctx).Where("id = ?", key).Delete(&models.Session{}).Error; err != nil {
			return Entry{}, false, fmt.Errorf("purge expired session: %w", err)
		}
		return Entry{}, false, nil
	}

	value, err := base64.StdEncoding.DecodeString(row.Data)
	if err != nil {
		return Entry{}, false, fmt.Errorf("decode session data: %w", err)
	}
	return Entry{Value: value, ExpiresAt: row.ExpiresAt}, true, nil
}

// Set upserts the entry; concurrent writers resolve last-write-wins.
func (s *DBStore) Set(ctx context.Context, key string, value []byte, opts EntryOptions) error {
	now := s.clock()
	row := models.Session{
		ID:        key,
		Data:      base64.StdEncoding.EncodeToString(value),
		CreatedAt: now,
		ExpiresAt: opts.ExpiresAt(now),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Remove deletes the entry if present.
func (s *DBStore) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", key).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Refresh extends an unexpired entry by the refresh window; missing or
// expired entries are left alone.
func (s *DBStore) Refresh(ctx context.Context, key string) error {
	now := s.clock()
	err := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND expires_at >= ?", key, now).
		UpdateColumn("expires_at", now.Add(s.refreshWindow)).Error
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	return nil
}

// Sweep deletes every entry that expired before now and reports how many went.
func (s *DBStore) Sweep(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("sweep sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
