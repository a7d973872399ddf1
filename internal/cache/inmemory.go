package cache

import (
	"context"
	"strings"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	goCache "github.com/patrickmn/go-cache"
)

// DefaultExpiration is used when the config leaves the ttl unset
const DefaultExpiration = 30 * time.Minute

// DefaultCleanupInterval is how often expired items are removed from the cache
const DefaultCleanupInterval = 1 * time.Hour

// InMemoryCache implements the Cache interface using github.com/patrickmn/go-cache
type InMemoryCache struct {
	cache   *goCache.Cache
	enabled bool
	logger  *logger.Logger
}

var _ Cache = (*InMemoryCache)(nil)

// NewInMemoryCache builds a process-local cache. A disabled cache misses on
// every read and drops every write.
func NewInMemoryCache(cfg *config.Configuration, log *logger.Logger) *InMemoryCache {
	ttl := cfg.Cache.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultExpiration
	}

	log.Infow("initializing cache", "enabled", cfg.Cache.Enabled, "default_ttl", ttl)

	return &InMemoryCache{
		cache:   goCache.New(ttl, DefaultCleanupInterval),
		enabled: cfg.Cache.Enabled,
		logger:  log,
	}
}

// Get retrieves a value from the cache
func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	if !c.enabled {
		return nil, false
	}

	done := traceLookup(ctx, "inmemory", key)
	value, found := c.cache.Get(key)
	done(found)
	return value, found
}

// Set adds a value to the cache with the specified expiration
func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) {
	if !c.enabled {
		return
	}
	if expiration == 0 {
		expiration = goCache.DefaultExpiration
	}
	c.cache.Set(key, value, expiration)
}

// Delete removes a key from the cache
func (c *InMemoryCache) Delete(_ context.Context, key string) {
	if !c.enabled {
		return
	}
	c.cache.Delete(key)
}

// DeleteByPrefix removes all keys with the given prefix
func (c *InMemoryCache) DeleteByPrefix(_ context.Context, prefix string) {
	if !c.enabled {
		return
	}
	for k := range c.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Delete(k)
		}
	}
}

// Flush removes all items from the cache
func (c *InMemoryCache) Flush(_ context.Context) {
	if !c.enabled {
		return
	}
	c.cache.Flush()
}
