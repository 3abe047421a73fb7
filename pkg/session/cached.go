package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/agromarket/agromarket-backend/pkg/logger"
	redisclient "github.com/agromarket/agromarket-backend/pkg/redis"
)

type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SessionKey(id string) string
}

// CacheObserver receives hit/miss notifications.
type CacheObserver interface {
	ObserveSessionCache(hit bool)
}

// CachedStore reads through redis in front of a DBStore. The database stays
// authoritative; cache failures degrade to database reads.
type CachedStore struct {
	origin   *DBStore
	cache    cache
	logg     *logger.Logger
	observer CacheObserver
}

var _ Store = (*CachedStore)(nil)

// NewCachedStore wraps origin with the redis client.
func NewCachedStore(origin *DBStore, client cache, logg *logger.Logger, observer CacheObserver) (*CachedStore, error) {
	if origin == nil {
		return nil, fmt.Errorf("origin store is required")
	}
	if client == nil {
		return nil, fmt.Errorf("cache client is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &CachedStore{origin: origin, cache: client, logg: logg, observer: observer}, nil
}

func (c *CachedStore) observe(hit bool) {
	if c.observer != nil {
		c.observer.ObserveSessionCache(hit)
	}
}

func (c *CachedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cacheKey := c.cache.SessionKey(key)

	raw, err := c.cache.Get(ctx, cacheKey)
	switch {
	case err == nil:
		if value, decErr := base64.StdEncoding.DecodeString(raw); decErr == nil {
			c.observe(true)
			return value, true, nil
		}
	case !redisclient.IsNil(err):
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "session.cache_read_failed")
	}
	c.observe(false)

	entry, ok, err := c.origin.Lookup(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}

	// the cached copy must not outlive the row
	if ttl := time.Until(entry.ExpiresAt); ttl > 0 {
		if err := c.cache.Set(ctx, cacheKey, base64.StdEncoding.EncodeToString(entry.Value), ttl); err != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "session.cache_write_failed")
		}
	}
	return entry.Value, true, nil
}

func (c *CachedStore) Set(ctx context.Context, key string, value []byte, opts EntryOptions) error {
	if err := c.origin.Set(ctx, key, value, opts); err != nil {
		return err
	}
	c.invalidate(ctx, key)
	return nil
}

func (c *CachedStore) Remove(ctx context.Context, key string) error {
	if err := c.origin.Remove(ctx, key); err != nil {
		return err
	}
	c.invalidate(ctx, key)
	return nil
}

// Refresh only touches the database; a cached copy simply expires earlier
// and is repopulated on the next read.
func (c *CachedStore) Refresh(ctx context.Context, key string) error {
	return c.origin.Refresh(ctx, key)
}

func (c *CachedStore) invalidate(ctx context.Context, key string) {
	if err := c.cache.Del(ctx, c.cache.SessionKey(key)); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "session.cache_invalidate_failed")
	}
}
