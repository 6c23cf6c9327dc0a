package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mathieu-neron/channelfinder/internal/metrics"
	"github.com/mathieu-neron/channelfinder/internal/model"
)

// Redis key TTLs. Sweeps invalidate explicitly, so the TTL only bounds
// staleness from writes made by other processes.
const (
	ListCacheTTL    = 5 * time.Minute
	StatsCacheTTL   = time.Minute
	ChannelCacheTTL = 15 * time.Minute
)

const keyPrefix = "channels:"

// CacheService provides a Redis cache-aside layer for channel reads.
// With a nil client every operation is a no-op.
type CacheService struct {
	rdb     *redis.Client
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewCacheService connects to redisURL. If the URL is empty or the
// connection fails, it returns a CacheService with caching disabled.
func NewCacheService(redisURL string, logger zerolog.Logger, m *metrics.Metrics) *CacheService {
	logger = logger.With().Str("component", "cache").Logger()
	if redisURL == "" {
		logger.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{logger: logger, metrics: m}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &CacheService{logger: logger, metrics: m}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		logger.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		return &CacheService{logger: logger, metrics: m}
	}

	logger.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb, logger: logger, metrics: m}
}

// NewCacheServiceWithClient wraps an existing client.
func NewCacheServiceWithClient(rdb *redis.Client, logger zerolog.Logger, m *metrics.Metrics) *CacheService {
	return &CacheService{rdb: rdb, logger: logger.With().Str("component", "cache").Logger(), metrics: m}
}

// Enabled reports whether a Redis client is configured.
func (c *CacheService) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Ping checks the Redis connection. It is a no-op when caching is disabled.
func (c *CacheService) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// GetList loads a cached category listing into out. It reports false on a
// miss or when caching is disabled.
func (c *CacheService) GetList(ctx context.Context, category model.Category, limit int, out any) (bool, error) {
	return c.get(ctx, listKey(category, limit), out)
}

func (c *CacheService) SetList(ctx context.Context, category model.Category, limit int, data any) error {
	return c.set(ctx, listKey(category, limit), data, ListCacheTTL)
}

func (c *CacheService) GetStats(ctx context.Context, out any) (bool, error) {
	return c.get(ctx, statsKey(), out)
}

func (c *CacheService) SetStats(ctx context.Context, data any) error {
	return c.set(ctx, statsKey(), data, StatsCacheTTL)
}

func (c *CacheService) GetChannel(ctx context.Context, id int64, out any) (bool, error) {
	return c.get(ctx, channelKey(id), out)
}

func (c *CacheService) SetChannel(ctx context.Context, id int64, data any) error {
	return c.set(ctx, channelKey(id), data, ChannelCacheTTL)
}

// InvalidateChannels removes every cached channel read model.
func (c *CacheService) InvalidateChannels(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	var keys []string
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cache keys: %w", err)
	}
	c.logger.Debug().Int("keys", len(keys)).Msg("channel cache invalidated")
	return nil
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

func (c *CacheService) get(ctx context.Context, key string, out any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.CacheMiss()
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.metrics.CacheMiss()
		return false, nil
	}
	c.metrics.CacheHit()
	return true, nil
}

func (c *CacheService) set(ctx context.Context, key string, data any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

func listKey(category model.Category, limit int) string {
	return fmt.Sprintf("%slist:%s:%d", keyPrefix, category, limit)
}

func statsKey() string {
	return keyPrefix + "stats"
}

func channelKey(id int64) string {
	return fmt.Sprintf("%sid:%d", keyPrefix, id)
}
