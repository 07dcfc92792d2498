package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks live session ids in Redis.
// Key format: session:<session_id>, value is the identity subject id.
// A key expiring or being deleted revokes the session.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Put registers a session that stays live for ttl.
func (s *SessionStore) Put(ctx context.Context, sessionID, subjectID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(sessionID), subjectID, ttl).Err(); err != nil {
		return fmt.Errorf("session put: %w", err)
	}
	return nil
}

// Exists reports whether the session is still live.
func (s *SessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("session check: %w", err)
	}
	return n > 0, nil
}

// Touch extends a live session to ttl from now. Touching a revoked session
// does not resurrect it.
func (s *SessionStore) Touch(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, s.key(sessionID), ttl).Err(); err != nil {
		return fmt.Errorf("session touch: %w", err)
	}
	return nil
}

// Delete revokes the session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

func (s *SessionStore) key(sessionID string) string {
	return "session:" + sessionID
}
