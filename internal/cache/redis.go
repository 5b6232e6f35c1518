package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SharedCache is an optional Redis-backed second-level cache for detection
// results, shared across service replicas. The engine's in-process LRU stays
// authoritative; this layer only short-cuts the transport path.
type SharedCache struct {
	client *redis.Client
	config *RedisConfig
	logger *zap.Logger
	stats  *sharedStats
}

// sharedStats counts lookups from concurrent request handlers.
type sharedStats struct {
	hits   int64
	misses int64
}

func (s *sharedStats) hit()  { atomic.AddInt64(&s.hits, 1) }
func (s *sharedStats) miss() { atomic.AddInt64(&s.misses, 1) }

func (s *sharedStats) snapshot() (hits, misses int64) {
	return atomic.LoadInt64(&s.hits), atomic.LoadInt64(&s.misses)
}

// NewSharedCache connects to Redis and verifies the connection.
func NewSharedCache(config *RedisConfig, logger *zap.Logger) (*SharedCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.MaxConnections
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	sc := &SharedCache{
		client: client,
		config: config,
		logger: logger,
		stats:  &sharedStats{},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := sc.client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Shared result cache initialized",
		zap.String("redis_url", maskRedisURL(config.RedisURL)),
		zap.Int("max_connections", config.MaxConnections),
		zap.Duration("default_ttl", config.DefaultTTL))

	return sc, nil
}

// Lookup returns a previously stored result for the normalized text, if any.
// Redis errors degrade to a miss; the caller always has the engine to fall
// back on.
func (sc *SharedCache) Lookup(ctx context.Context, text string) (*StoredResult, bool) {
	key := sc.resultKey(text)

	data, err := sc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		sc.stats.miss()
		return nil, false
	} else if err != nil {
		sc.logger.Error("Shared cache lookup failed", zap.Error(err))
		return nil, false
	}

	var result StoredResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		sc.logger.Error("Failed to unmarshal cached result", zap.Error(err))
		sc.client.Del(ctx, key)
		return nil, false
	}

	sc.stats.hit()
	return &result, true
}

// Store caches a result under the normalized text with the configured TTL.
func (sc *SharedCache) Store(ctx context.Context, text string, result *StoredResult) error {
	result.CachedAt = time.Now()

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result for caching: %w", err)
	}

	if err := sc.client.Set(ctx, sc.resultKey(text), data, sc.config.DefaultTTL).Err(); err != nil {
		sc.logger.Error("Failed to cache result", zap.Error(err))
		return fmt.Errorf("failed to cache result: %w", err)
	}

	return nil
}

// GetStats returns shared-cache counters plus the Redis key count.
func (sc *SharedCache) GetStats(ctx context.Context) (*Stats, error) {
	hits, misses := sc.stats.snapshot()
	stats := &Stats{
		Hits:   hits,
		Misses: misses,
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}

	keys, err := sc.client.DBSize(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get Redis key count: %w", err)
	}
	stats.Size = int(keys)

	return stats, nil
}

// Clear removes all cached results with this cache's key prefix.
func (sc *SharedCache) Clear(ctx context.Context) error {
	pattern := sc.config.KeyPrefix + ":*"

	iter := sc.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	batchSize := 100
	for i := 0; i < len(keys); i += batchSize {
		end := i + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := sc.client.Del(ctx, keys[i:end]...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}

	sc.logger.Info("Shared cache cleared", zap.Int("deleted_keys", len(keys)))
	return nil
}

// Close closes the Redis connection.
func (sc *SharedCache) Close() error {
	if sc.client != nil {
		return sc.client.Close()
	}
	return nil
}

// resultKey derives a stable cache key from the normalized text.
func (sc *SharedCache) resultKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:det:%s", sc.config.KeyPrefix, hex.EncodeToString(hash[:])[:16])
}

// maskRedisURL masks credentials in a Redis URL for logging.
func maskRedisURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
