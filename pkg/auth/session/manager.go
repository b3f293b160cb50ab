package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/hydrus-backend/pkg/config"
	redisclient "github.com/angelmondragon/hydrus-backend/pkg/redis"
	"github.com/google/uuid"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(sessionID string) string
}

// Manager tracks which admin sessions are live. A signed token is only
// honoured while its session id is present in Redis.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	HasSession(ctx context.Context, sessionID string) (bool, error)
}

// Revoker ends a session.
type Revoker interface {
	Revoke(ctx context.Context, sessionID string) error
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{store: client, keyer: client, ttl: cfg.TTL}, nil
}

// Create registers a new session for subject and returns its id.
func (m *Manager) Create(ctx context.Context, subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("session subject is required")
	}
	sessionID := uuid.NewString()
	if err := m.store.Set(ctx, m.keyer.SessionKey(sessionID), subject, m.ttl); err != nil {
		return "", err
	}
	return sessionID, nil
}

// HasSession reports whether the session id is still live.
func (m *Manager) HasSession(ctx context.Context, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, fmt.Errorf("session id is required")
	}
	return m.store.Exists(ctx, m.keyer.SessionKey(sessionID))
}

// Revoke deletes the session so outstanding tokens stop working.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	return m.store.Del(ctx, m.keyer.SessionKey(sessionID))
}
