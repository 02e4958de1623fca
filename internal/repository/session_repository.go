package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/orbita-academy/orbita-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// Session errors surfaced to the auth middleware.
var (
	ErrNoSession          = errors.New("no active session")
	ErrSessionInvalidated = errors.New("session invalidated")
	ErrNoCachedPerms      = errors.New("no cached permissions")
)

// SessionRepository stores session credentials and the effective-permission
// cache in Redis. A session is a single JTI per user; logging in again
// overwrites it, logging out or being deactivated deletes it.
type SessionRepository struct {
	rdb *redis.Client
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

// Save records jti as the user's active session for ttl.
func (r *SessionRepository) Save(ctx context.Context, userID int, jti string, ttl time.Duration) error {
	key := config.CacheKey.UserSessionKey(userID)
	if err := r.rdb.Set(ctx, key, jti, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Validate checks that jti matches the user's active session.
func (r *SessionRepository) Validate(ctx context.Context, userID int, jti string) error {
	stored, err := r.rdb.Get(ctx, config.CacheKey.UserSessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNoSession
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return ErrSessionInvalidated
	}
	return nil
}

// Clear removes the user's session key. Clearing an absent session is a no-op.
func (r *SessionRepository) Clear(ctx context.Context, userID int) error {
	return r.rdb.Del(ctx, config.CacheKey.UserSessionKey(userID)).Err()
}

// CachePermissions stores the user's effective permission set for ttl.
func (r *SessionRepository) CachePermissions(ctx context.Context, userID int, permissions []string, ttl time.Duration) error {
	raw, err := json.Marshal(permissions)
	if err != nil {
		return err
	}
	key := config.CacheKey.UserPermissionsKey(userID)
	if err := r.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache permissions: %w", err)
	}
	return nil
}

// GetPermissions loads the cached effective permission set.
// Returns ErrNoCachedPerms on a cache miss.
func (r *SessionRepository) GetPermissions(ctx context.Context, userID int) ([]string, error) {
	raw, err := r.rdb.Get(ctx, config.CacheKey.UserPermissionsKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoCachedPerms
		}
		return nil, fmt.Errorf("read permission cache: %w", err)
	}

	var permissions []string
	if err := json.Unmarshal([]byte(raw), &permissions); err != nil {
		// A corrupt cache entry is treated as a miss, not a failure.
		return nil, ErrNoCachedPerms
	}
	return permissions, nil
}

// ClearPermissions drops the cached permission set.
func (r *SessionRepository) ClearPermissions(ctx context.Context, userID int) error {
	return r.rdb.Del(ctx, config.CacheKey.UserPermissionsKey(userID)).Err()
}
