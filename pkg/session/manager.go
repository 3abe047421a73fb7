package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agromarket/agromarket-backend/pkg/security"
)

const keyBytes = 32

// ErrNotFound signals a missing, expired or unreadable session.
var ErrNotFound = errors.New("session not found")

// Payload is what an authenticated session remembers about its user.
type Payload struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
}

// Manager issues and resolves session keys on top of a Store.
type Manager struct {
	store Store
	idle  time.Duration
}

// NewManager constructs a manager whose sessions slide by idle on each Touch.
func NewManager(store Store, idle time.Duration) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if idle <= 0 {
		idle = DefaultExpiration
	}
	return &Manager{store: store, idle: idle}, nil
}

// Create persists payload under a fresh random key.
func (m *Manager) Create(ctx context.Context, payload Payload) (string, error) {
	if payload.UserID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	key, err := security.RandomToken(keyBytes)
	if err != nil {
		return "", fmt.Errorf("generating session key: %w", err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding session payload: %w", err)
	}
	if err := m.store.Set(ctx, key, data, EntryOptions{SlidingExpiration: m.idle}); err != nil {
		return "", err
	}
	return key, nil
}

// Load resolves key into its payload or ErrNotFound.
func (m *Manager) Load(ctx context.Context, key string) (*Payload, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	data, ok, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil || payload.UserID == uuid.Nil {
		return nil, ErrNotFound
	}
	return &payload, nil
}

// Touch extends the idle timeout of an active session.
func (m *Manager) Touch(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	return m.store.Refresh(ctx, key)
}

// Destroy removes the session.
func (m *Manager) Destroy(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	return m.store.Remove(ctx, key)
}
