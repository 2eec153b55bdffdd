// Package trendcache keeps the per-skill trend scores in redis. The cache is
// derived state with an explicit staleness window; it can be rebuilt from
// scratch at any time by the taxonomy service's RefreshTrending.
package trendcache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/utils"
)

type Cache interface {
	Put(ctx context.Context, skillID uuid.UUID, score float64) error
	Get(ctx context.Context, skillID uuid.UUID) (float64, bool, error)
	Invalidate(ctx context.Context, skillID uuid.UUID) error
	Close() error
}

type cache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func New(log *logger.Logger) (Cache, error) {
	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "localhost:6379", log))
	ttlHours := utils.GetEnvAsInt("TREND_CACHE_TTL_HOURS", 24, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &cache{
		log: log.With("service", "TrendCache"),
		rdb: rdb,
		ttl: time.Duration(ttlHours) * time.Hour,
	}, nil
}

// NewNoop returns a cache that stores nothing, for running without redis.
func NewNoop() Cache {
	return noopCache{}
}

type noopCache struct{}

func (noopCache) Put(ctx context.Context, skillID uuid.UUID, score float64) error { return nil }
func (noopCache) Get(ctx context.Context, skillID uuid.UUID) (float64, bool, error) {
	return 0, false, nil
}
func (noopCache) Invalidate(ctx context.Context, skillID uuid.UUID) error { return nil }
func (noopCache) Close() error                                            { return nil }

func key(skillID uuid.UUID) string {
	return "trend:skill:" + skillID.String()
}

func (c *cache) Put(ctx context.Context, skillID uuid.UUID, score float64) error {
	val := strconv.FormatFloat(score, 'f', -1, 64)
	if err := c.rdb.Set(ctx, key(skillID), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("trend cache set: %w", err)
	}
	return nil
}

func (c *cache) Get(ctx context.Context, skillID uuid.UUID) (float64, bool, error) {
	val, err := c.rdb.Get(ctx, key(skillID)).Result()
	if err == goredis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("trend cache get: %w", err)
	}
	score, err := strconv.ParseFloat(val, 64)
	if err != nil {
		// Treat a corrupt entry as a miss; the refresher will overwrite it.
		c.log.Warn("Dropping unparseable trend cache entry", "skill_id", skillID, "value", val)
		return 0, false, nil
	}
	return score, true, nil
}

func (c *cache) Invalidate(ctx context.Context, skillID uuid.UUID) error {
	return c.rdb.Del(ctx, key(skillID)).Err()
}

func (c *cache) Close() error {
	return c.rdb.Close()
}
