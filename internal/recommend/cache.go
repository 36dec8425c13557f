package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
	"github.com/saaga0h/jeeves-wellbeing/pkg/redis"
)

// Cache keeps the latest generated recommendation list per date in Redis
type Cache struct {
	redis  redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache creates a recommendation cache
func NewCache(client redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{redis: client, ttl: ttl, logger: logger}
}

// Put replaces the cached list for date
func (c *Cache) Put(ctx context.Context, date time.Time, recs []types.Recommendation) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	key := redis.RecommendationsKey(types.NormalizeDate(date).Format(types.DateLayout))
	if err := c.redis.Set(ctx, key, data, c.ttl); err != nil {
		return err
	}

	c.logger.Debug("Cached recommendations", "key", key, "count", len(recs))
	return nil
}

// Get returns the cached list for date. ok is false on a cache miss.
func (c *Cache) Get(ctx context.Context, date time.Time) ([]types.Recommendation, bool, error) {
	key := redis.RecommendationsKey(types.NormalizeDate(date).Format(types.DateLayout))
	raw, err := c.redis.Get(ctx, key)
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var recs []types.Recommendation
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached recommendations %s: %w", key, err)
	}
	return recs, true, nil
}

// Invalidate drops the cached list for date
func (c *Cache) Invalidate(ctx context.Context, date time.Time) error {
	return c.redis.Del(ctx, redis.RecommendationsKey(types.NormalizeDate(date).Format(types.DateLayout)))
}
