package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper remembers keys in Redis for ttl so the same work is done once.
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// AcquireOnce returns true the first time scope+key is seen within ttl and
// false for duplicates. When Redis is unreachable it allows the work.
func (d *Deduper) AcquireOnce(ctx context.Context, scope, key string) bool {
	redisKey := fmt.Sprintf("dedup:%s:%s", scope, key)

	ok, err := d.rdb.SetNX(ctx, redisKey, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("Redis dedup check failed, allowing processing",
			zap.String("scope", scope),
			zap.String("key", key),
			zap.Error(err),
		)
		return true
	}

	if !ok {
		d.logger.Info("Skipped duplicate",
			zap.String("scope", scope),
			zap.String("dedup_key", redisKey),
		)
	}

	return ok
}

// Release forgets scope+key. Only the caller that acquired the key should
// release it, after the work it guarded failed.
func (d *Deduper) Release(ctx context.Context, scope, key string) {
	redisKey := fmt.Sprintf("dedup:%s:%s", scope, key)
	if err := d.rdb.Del(ctx, redisKey).Err(); err != nil {
		d.logger.Warn("Redis dedup release failed",
			zap.String("scope", scope),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
