// Package ratelimit 提供基于 Redis 的分布式限流，以及进程内令牌桶兜底实现
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter 限流器接口
type RateLimiter interface {
	// Allow 判断 key 在给定规则下是否放行
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// Limit 限流规则
type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// Result 限流结果
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// RedisRateLimiter 基于 GCRA 的 Redis 限流器，多实例共享配额
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
}

// NewRedisRateLimiter 创建 Redis 限流器
func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{limiter: redis_rate.NewLimiter(rdb)}
}

// Allow 检查请求是否放行
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	res, err := r.limiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit.Rate,
		Period: limit.Period,
		Burst:  limit.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
		RetryAfter: res.RetryAfter,
	}, nil
}

// LocalRateLimiter 进程内按 key 维护令牌桶，Redis 不可用时使用
type LocalRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewLocalRateLimiter 创建进程内限流器
func NewLocalRateLimiter() *LocalRateLimiter {
	return &LocalRateLimiter{buckets: make(map[string]*rate.Limiter)}
}

// Allow 检查请求是否放行
func (l *LocalRateLimiter) Allow(_ context.Context, key string, limit Limit) (*Result, error) {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		period := limit.Period
		if period <= 0 {
			period = time.Second
		}
		every := rate.Every(period / time.Duration(max(limit.Rate, 1)))
		b = rate.NewLimiter(every, max(limit.Burst, 1))
		l.buckets[key] = b
	}
	l.mu.Unlock()

	now := time.Now()
	r := b.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return &Result{Allowed: false, RetryAfter: delay, ResetAfter: delay}, nil
	}
	return &Result{Allowed: true, Remaining: int(b.TokensAt(now))}, nil
}

// Fallback 先使用主限流器，出错时退回次级限流器
type Fallback struct {
	Primary   RateLimiter
	Secondary RateLimiter
}

// Allow 检查请求是否放行
func (f Fallback) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	if f.Primary != nil {
		if res, err := f.Primary.Allow(ctx, key, limit); err == nil {
			return res, nil
		}
	}
	return f.Secondary.Allow(ctx, key, limit)
}
