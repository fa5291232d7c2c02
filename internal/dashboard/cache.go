package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medagg/patient-connect/pkg/logging"
)

const statsCacheKey = "dashboard:stats"

// StatsCache keeps the latest Stats snapshot in Redis so dashboard polling
// does not hammer the aggregate queries. All operations are best-effort: a
// cache failure degrades to the database, never to an error response.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewStatsCache creates a Redis-backed stats cache.
func NewStatsCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *StatsCache {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &StatsCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached snapshot, or nil on miss or error.
func (c *StatsCache) Get(ctx context.Context) *Stats {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := c.client.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("stats cache read failed", "error", err)
		}
		return nil
	}
	var stats Stats
	if err := json.Unmarshal(payload, &stats); err != nil {
		c.logger.Warn("stats cache entry corrupt", "error", err)
		return nil
	}
	return &stats
}

// Set stores the snapshot with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, stats *Stats) {
	if c == nil || c.client == nil || stats == nil {
		return
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsCacheKey, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("stats cache write failed", "error", err)
	}
}
