// Package cache はポーリング用の決済状態をRedisに短時間だけ置く。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"powerchip/internal/usecase"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "payment:status:"

type RedisStatusCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStatusCache(rdb redis.Cmdable, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{rdb: rdb, ttl: ttl}
}

func key(paymentID string) string {
	return keyPrefix + paymentID
}

func (c *RedisStatusCache) Get(ctx context.Context, paymentID string) (usecase.PaymentStatusView, bool, error) {
	b, err := c.rdb.Get(ctx, key(paymentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return usecase.PaymentStatusView{}, false, nil
	}
	if err != nil {
		return usecase.PaymentStatusView{}, false, fmt.Errorf("cache: get: %w", err)
	}

	var v usecase.PaymentStatusView
	if err := json.Unmarshal(b, &v); err != nil {
		// 壊れた値は無かったことにする
		return usecase.PaymentStatusView{}, false, nil
	}
	return v, true, nil
}

func (c *RedisStatusCache) Set(ctx context.Context, view usecase.PaymentStatusView) error {
	if c.ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}
	return c.rdb.Set(ctx, key(view.PaymentID), b, c.ttl).Err()
}

func (c *RedisStatusCache) Invalidate(ctx context.Context, paymentID string) error {
	return c.rdb.Del(ctx, key(paymentID)).Err()
}

var _ usecase.StatusCache = (*RedisStatusCache)(nil)
