package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps each window in a sorted set scored by attempt time, so several
// authority processes can share one throttle.
type Redis struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, addr, pass string, db int) (*Redis, error) {
	const op = "ratelimit.NewRedis"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) IsLimited(ctx context.Context, key string, maxAttempts int, window time.Duration) (bool, int, error) {
	const op = "ratelimit.Redis.IsLimited"

	now := time.Now()
	k := "ratelimit:" + key

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, k, "0", strconv.FormatInt(now.Add(-window).UnixMilli(), 10))
	countCmd := pipe.ZCard(ctx, k)
	oldestCmd := pipe.ZRangeWithScores(ctx, k, 0, 0)
	pipe.Expire(ctx, k, window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("%s: %w", op, err)
	}

	if countCmd.Val() >= int64(maxAttempts) {
		retryAfter := 1
		if oldest := oldestCmd.Val(); len(oldest) > 0 {
			oldestAt := time.UnixMilli(int64(oldest[0].Score))
			if s := int(oldestAt.Add(window).Sub(now).Seconds()); s > retryAfter {
				retryAfter = s
			}
		}
		return true, retryAfter, nil
	}

	return false, 0, nil
}

func (r *Redis) RecordAttempt(ctx context.Context, key string) error {
	const op = "ratelimit.Redis.RecordAttempt"

	now := time.Now()
	k := "ratelimit:" + key

	err := r.client.ZAdd(ctx, k, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	}).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *Redis) Close() {
	_ = r.client.Close()
}
