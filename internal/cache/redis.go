package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"ideacentral/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// Each requested limit is cached under its own key with its own TTL. The
// index set lists those keys so Invalidate can drop them all at once.
const (
	leaderboardPrefix   = "ideacentral:leaderboard:"
	leaderboardIndexKey = "ideacentral:leaderboard:keys"
)

// RedisLeaderboard caches top-submitter rankings in Redis.
type RedisLeaderboard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLeaderboard connects to the Redis instance at url and pings it.
func NewRedisLeaderboard(ctx context.Context, url string, ttl time.Duration) (*RedisLeaderboard, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Printf("[Cache] Connected to Redis at %s", opts.Addr)
	return &RedisLeaderboard{client: client, ttl: ttl}, nil
}

func (c *RedisLeaderboard) Get(ctx context.Context, limit int) ([]models.TopSubmitter, bool, error) {
	raw, err := c.client.Get(ctx, limitKey(limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var top []models.TopSubmitter
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, false, fmt.Errorf("decode cached leaderboard: %w", err)
	}
	return top, true, nil
}

func (c *RedisLeaderboard) Set(ctx context.Context, limit int, top []models.TopSubmitter) error {
	raw, err := json.Marshal(top)
	if err != nil {
		return err
	}
	key := limitKey(limit)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, raw, c.ttl)
	pipe.SAdd(ctx, leaderboardIndexKey, key)
	// the index only needs to outlive its newest member
	if c.ttl > 0 {
		pipe.Expire(ctx, leaderboardIndexKey, c.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (c *RedisLeaderboard) Invalidate(ctx context.Context) error {
	keys, err := c.client.SMembers(ctx, leaderboardIndexKey).Result()
	if err != nil {
		return err
	}
	return c.client.Del(ctx, append(keys, leaderboardIndexKey)...).Err()
}

func (c *RedisLeaderboard) Close() error {
	return c.client.Close()
}

func limitKey(limit int) string {
	return leaderboardPrefix + strconv.Itoa(limit)
}
