package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	sharedredis "intel-server/internal/shared/redis"
)

// FetchFunc retrieves the full unit-type-id to display-name table from the
// upstream localization feed.
type FetchFunc func(ctx context.Context) (map[int]string, error)

const (
	cacheKey = "catalog:unit_names"
	cacheTTL = 24 * time.Hour
)

// Catalog is a lazily-populated, process-wide read-only cache of unit type
// names (ships and technologies share one id space upstream). Lookups hit the
// in-memory copy first, then Redis, then the feed. Tests inject a fixed
// FetchFunc and a nil cache client.
type Catalog struct {
	mu     sync.RWMutex
	names  map[int]string
	fetch  FetchFunc
	cache  *sharedredis.Client
	logger *slog.Logger
}

func New(fetch FetchFunc, cache *sharedredis.Client, logger *slog.Logger) *Catalog {
	logger.Debug("Initializing unit-name catalog")

	return &Catalog{
		fetch:  fetch,
		cache:  cache,
		logger: logger,
	}
}

// Names returns the full id-to-name table, populating it on first use.
func (c *Catalog) Names(ctx context.Context) (map[int]string, error) {
	c.mu.RLock()
	names := c.names
	c.mu.RUnlock()
	if names != nil {
		return names, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.names != nil {
		return c.names, nil
	}

	logger := c.logger.With("component", "catalog", "operation", "populate")

	if cached := c.loadFromCache(ctx); cached != nil {
		logger.Debug("Unit names loaded from cache", "count", len(cached))
		c.names = cached
		return c.names, nil
	}

	fetched, err := c.fetch(ctx)
	if err != nil {
		logger.Error("Failed to fetch unit names", "error", err)
		return nil, fmt.Errorf("failed to fetch unit names: %w", err)
	}

	c.storeInCache(ctx, fetched)
	logger.Info("Unit names fetched", "count", len(fetched))
	c.names = fetched
	return c.names, nil
}

// Name resolves one unit type id, falling back to a numeric placeholder for
// ids the localization feed does not carry.
func (c *Catalog) Name(ctx context.Context, id int) (string, error) {
	names, err := c.Names(ctx)
	if err != nil {
		return "", err
	}
	if name, ok := names[id]; ok {
		return name, nil
	}
	return fmt.Sprintf("Unknown (%d)", id), nil
}

func (c *Catalog) loadFromCache(ctx context.Context) map[int]string {
	if c.cache == nil {
		return nil
	}

	payload, err := c.cache.Get(ctx, cacheKey).Bytes()
	if err != nil {
		return nil
	}

	var names map[int]string
	if err := json.Unmarshal(payload, &names); err != nil {
		c.logger.Warn("Discarding unreadable cached unit names", "error", err)
		return nil
	}
	return names
}

func (c *Catalog) storeInCache(ctx context.Context, names map[int]string) {
	if c.cache == nil {
		return
	}

	payload, err := json.Marshal(names)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, cacheKey, payload, cacheTTL).Err(); err != nil {
		c.logger.Warn("Failed to cache unit names", "error", err)
	}
}
