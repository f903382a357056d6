package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// VerdictCache remembers model verdicts for identical descriptions.
type VerdictCache interface {
	Get(ctx context.Context, description string) (urgent bool, ok bool)
	Set(ctx context.Context, description string, urgent bool)
}

// RedisVerdictCache stores verdicts as "0"/"1" under a hash of the text.
type RedisVerdictCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisVerdictCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisVerdictCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisVerdictCache{rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(description string) string {
	sum := sha256.Sum256([]byte(description))
	return "verdict:" + hex.EncodeToString(sum[:])
}

// Get treats any Redis failure as a miss.
func (c *RedisVerdictCache) Get(ctx context.Context, description string) (bool, bool) {
	val, err := c.rdb.Get(ctx, cacheKey(description)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("verdict cache read failed", zap.Error(err))
		}
		return false, false
	}
	switch val {
	case "1":
		return true, true
	case "0":
		return false, true
	default:
		return false, false
	}
}

func (c *RedisVerdictCache) Set(ctx context.Context, description string, urgent bool) {
	val := "0"
	if urgent {
		val = "1"
	}
	if err := c.rdb.Set(ctx, cacheKey(description), val, c.ttl).Err(); err != nil {
		c.logger.Warn("verdict cache write failed", zap.Error(err))
	}
}
