//go:build integration

package users_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"schoolhub/internal/platform/config"
	"schoolhub/internal/platform/redis"
	"schoolhub/internal/users"
	"schoolhub/pkg/testutil/containers"
)

type CachedStoreSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	client *redis.Client
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	client, err := redis.New(config.RedisConfig{
		URL:          s.redis.URL,
		PoolSize:     5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	s.Require().NoError(err)
	s.client = client
}

func (s *CachedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

// countingStore counts backing-store reads so the tests can observe cache
// hits.
type countingStore struct {
	users.Store
	finds int
}

func (c *countingStore) FindByID(ctx context.Context, id string) (*users.User, error) {
	c.finds++
	return c.Store.FindByID(ctx, id)
}

func (s *CachedStoreSuite) newCached(backing users.Store) (*users.CachedStore, *countingStore) {
	counting := &countingStore{Store: backing}
	cached := users.NewCached(counting, s.client, time.Minute, slog.New(slog.DiscardHandler))
	return cached, counting
}

func (s *CachedStoreSuite) TestReadThrough() {
	ctx := context.Background()
	backing := users.NewMemory()
	s.Require().NoError(backing.Save(ctx, &users.User{
		ID: "u-1", Email: "a@school.example", Name: "A", Role: "admin", Active: true,
	}))
	cached, counting := s.newCached(backing)

	first, err := cached.FindByID(ctx, "u-1")
	s.Require().NoError(err)
	s.Equal("a@school.example", first.Email)
	s.Equal(1, counting.finds)

	second, err := cached.FindByID(ctx, "u-1")
	s.Require().NoError(err)
	s.Equal(first.Email, second.Email)
	s.Equal(1, counting.finds, "second read served from cache")
}

func (s *CachedStoreSuite) TestSaveInvalidates() {
	ctx := context.Background()
	backing := users.NewMemory()
	user := &users.User{ID: "u-1", Email: "a@school.example", Name: "A", Role: "admin", Active: true}
	s.Require().NoError(backing.Save(ctx, user))
	cached, counting := s.newCached(backing)

	_, err := cached.FindByID(ctx, "u-1")
	s.Require().NoError(err)

	user.Name = "Renamed"
	s.Require().NoError(cached.Save(ctx, user))

	found, err := cached.FindByID(ctx, "u-1")
	s.Require().NoError(err)
	s.Equal("Renamed", found.Name)
	s.Equal(2, counting.finds, "stale entry was invalidated")
}
