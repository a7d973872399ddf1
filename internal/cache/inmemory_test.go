package cache

import (
	"context"
	"testing"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/stretchr/testify/suite"
)

type InMemoryCacheSuite struct {
	suite.Suite
	ctx   context.Context
	cache *InMemoryCache
}

func TestInMemoryCache(t *testing.T) {
	suite.Run(t, new(InMemoryCacheSuite))
}

func (s *InMemoryCacheSuite) SetupTest() {
	s.ctx = context.Background()
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.DefaultTTL = time.Minute
	s.cache = NewInMemoryCache(cfg, logger.NewNopLogger())
}

func (s *InMemoryCacheSuite) TestSetGet() {
	key := GenerateKey(PrefixUser, "usr_1")
	s.Equal("user:v1::usr_1", key)

	s.cache.Set(s.ctx, key, "a@example.com", 0)
	v, ok := s.cache.Get(s.ctx, key)
	s.True(ok)
	s.Equal("a@example.com", v)

	s.cache.Delete(s.ctx, key)
	_, ok = s.cache.Get(s.ctx, key)
	s.False(ok)
}

func (s *InMemoryCacheSuite) TestDeleteByPrefix() {
	s.cache.Set(s.ctx, GenerateKey(PrefixUser, "a"), 1, 0)
	s.cache.Set(s.ctx, GenerateKey(PrefixUser, "b"), 2, 0)
	s.cache.Set(s.ctx, GenerateKey(PrefixSubscription, "a"), 3, 0)

	s.cache.DeleteByPrefix(s.ctx, PrefixUser)

	_, ok := s.cache.Get(s.ctx, GenerateKey(PrefixUser, "a"))
	s.False(ok)
	_, ok = s.cache.Get(s.ctx, GenerateKey(PrefixSubscription, "a"))
	s.True(ok)
}

func (s *InMemoryCacheSuite) TestDisabledCacheAlwaysMisses() {
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = false
	c := NewInMemoryCache(cfg, logger.NewNopLogger())

	c.Set(s.ctx, "k", "v", 0)
	_, ok := c.Get(s.ctx, "k")
	s.False(ok)
}
