package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/agromarket/agromarket-backend/pkg/config"
	"github.com/agromarket/agromarket-backend/pkg/db/dbtest"
)

type memoryStore struct {
	data      map[string][]byte
	opts      map[string]EntryOptions
	refreshed []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}, opts: map[string]EntryOptions{}}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, opts EntryOptions) error {
	m.data[key] = value
	m.opts[key] = opts
	return nil
}

func (m *memoryStore) Remove(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memoryStore) Refresh(_ context.Context, key string) error {
	m.refreshed = append(m.refreshed, key)
	return nil
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	manager, err := NewManager(store, 20*time.Minute)
	require.NoError(t, err)

	payload := Payload{UserID: uuid.New(), Username: "farmer", Role: "Customer"}
	key, err := manager.Create(ctx, payload)
	require.NoError(t, err)
	require.Len(t, key, 43, "32 bytes base64url without padding")
	require.Equal(t, 20*time.Minute, store.opts[key].SlidingExpiration)

	loaded, err := manager.Load(ctx, key)
	require.NoError(t, err)
	require.Equal(t, payload, *loaded)

	require.NoError(t, manager.Touch(ctx, key))
	require.Equal(t, []string{key}, store.refreshed)

	require.NoError(t, manager.Destroy(ctx, key))
	_, err = manager.Load(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestManagerRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	manager, err := NewManager(store, 0)
	require.NoError(t, err)
	require.Equal(t, DefaultExpiration, manager.idle)

	store.data["bad"] = []byte("not json")
	_, err = manager.Load(ctx, "bad")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = manager.Load(ctx, "")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = manager.Create(ctx, Payload{Username: "nobody"})
	require.Error(t, err)
}

func TestCookies(t *testing.T) {
	cookies := NewCookies(config.SessionConfig{CookieName: "AgroMarket.Session", CookieSecure: true, CookieSameSite: "none"})

	w := httptest.NewRecorder()
	cookies.Write(w, "abc")
	set := w.Result().Cookies()
	require.Len(t, set, 1)
	require.Equal(t, "abc", set[0].Value)
	require.True(t, set[0].HttpOnly)
	require.True(t, set[0].Secure)
	require.Equal(t, http.SameSiteNoneMode, set[0].SameSite)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "AgroMarket.Session", Value: "abc"})
	require.Equal(t, "abc", cookies.Read(r))
	require.Empty(t, cookies.Read(httptest.NewRequest(http.MethodGet, "/", nil)))

	w = httptest.NewRecorder()
	cookies.Clear(w)
	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, -1, cleared[0].MaxAge)
}

func TestManagerTouchKeepsConfiguredIdle(t *testing.T) {
	ctx := context.Background()
	idle := 2 * time.Hour
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store, err := NewDBStore(dbtest.Open(t), WithClock(clock.Now), WithRefreshWindow(idle))
	require.NoError(t, err)
	manager, err := NewManager(store, idle)
	require.NoError(t, err)

	key, err := manager.Create(ctx, Payload{UserID: uuid.New(), Username: "farmer", Role: "Customer"})
	require.NoError(t, err)
	entry, ok, err := store.Lookup(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, entry.ExpiresAt.Equal(clock.now.Add(idle)), "got %v", entry.ExpiresAt)

	clock.Advance(10 * time.Minute)
	require.NoError(t, manager.Touch(ctx, key))
	entry, ok, err = store.Lookup(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, entry.ExpiresAt.Equal(clock.now.Add(idle)), "got %v", entry.ExpiresAt)
}
