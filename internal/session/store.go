package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/agrimech/portal/pkg/utils"
)

const keyPrefix = "session:"

// ErrNoSession is returned by Lookup for unknown or expired session ids.
var ErrNoSession = errors.New("session not found")

// Store keeps site-user sessions in Redis. Only the user id is stored; the user record is
// loaded from Postgres on every request.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a Redis session store. ttl <= 0 defaults to seven days.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

// TTL returns the session lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Create starts a session for userID and returns its id.
func (s *Store) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	sid, err := utils.RandomToken()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, keyPrefix+sid, userID.String(), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return sid, nil
}

// Lookup returns the user id bound to sid.
func (s *Store) Lookup(ctx context.Context, sid string) (uuid.UUID, error) {
	if sid == "" {
		return uuid.Nil, ErrNoSession
	}
	raw, err := s.client.Get(ctx, keyPrefix+sid).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrNoSession
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("load session: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrNoSession
	}
	return id, nil
}

// Destroy deletes sid. Unknown ids are not an error.
func (s *Store) Destroy(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	return s.client.Del(ctx, keyPrefix+sid).Err()
}
