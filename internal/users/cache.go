package users

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"schoolhub/internal/platform/redis"
)

// CachedStore is a read-through cache in front of a Store. The identity
// resolver performs one user lookup per request; caching bounds database
// load without changing resolver semantics. Cache faults degrade to the
// underlying store, never to a request failure.
type CachedStore struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(next Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{next: next, client: client, ttl: ttl, logger: logger}
}

func cacheKey(id string) string { return "schoolhub:user:" + id }

func (s *CachedStore) FindByID(ctx context.Context, id string) (*User, error) {
	if s.client != nil {
		raw, err := s.client.Get(ctx, cacheKey(id)).Bytes()
		switch {
		case err == nil:
			var u User
			if err := json.Unmarshal(raw, &u); err == nil {
				return &u, nil
			}
			// Corrupt entry: fall through to the source of truth.
		case !errors.Is(err, goredis.Nil):
			s.logger.WarnContext(ctx, "user cache read failed", "error", err.Error())
		}
	}

	user, err := s.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(ctx, user)
	return user, nil
}

// FindByEmail is not cached; it only serves login, which is rare relative to
// per-request resolution.
func (s *CachedStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.next.FindByEmail(ctx, email)
}

func (s *CachedStore) Save(ctx context.Context, user *User) error {
	if err := s.next.Save(ctx, user); err != nil {
		return err
	}
	if s.client != nil {
		if err := s.client.Del(ctx, cacheKey(user.ID)).Err(); err != nil {
			s.logger.WarnContext(ctx, "user cache invalidation failed",
				"user_id", user.ID,
				"error", err.Error(),
			)
		}
	}
	return nil
}

func (s *CachedStore) put(ctx context.Context, user *User) {
	if s.client == nil {
		return
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, cacheKey(user.ID), raw, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "user cache write failed",
			"user_id", user.ID,
			"error", err.Error(),
		)
	}
}

var _ Store = (*CachedStore)(nil)
