package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/wyfcoding/aromastore/pkg/logger"
)

// LocalCache 基于 bigcache 的进程内缓存，所有条目共享同一 TTL
type LocalCache struct {
	bc *bigcache.BigCache
}

// NewLocal 创建本地缓存
func NewLocal(ctx context.Context, ttl time.Duration) (*LocalCache, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = ttl
	cfg.Verbose = false
	bc, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &LocalCache{bc: bc}, nil
}

// GetJSON 读取本地缓存
func (l *LocalCache) GetJSON(_ context.Context, key string, dest any) error {
	data, err := l.bc.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// SetJSON 写入本地缓存，ttl 参数被忽略
func (l *LocalCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return l.bc.Set(key, data)
}

// Delete 删除本地缓存条目
func (l *LocalCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		if err := l.bc.Delete(k); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
			return err
		}
	}
	return nil
}

// Close 释放本地缓存
func (l *LocalCache) Close() error {
	return l.bc.Close()
}

// Tiered 二级缓存：先查本地，再查远端，远端命中时回填本地
type Tiered struct {
	l1 Cache
	l2 Cache
}

// NewTiered 组合二级缓存，l2 可以为 nil
func NewTiered(l1, l2 Cache) *Tiered {
	return &Tiered{l1: l1, l2: l2}
}

// GetJSON 读取缓存
func (t *Tiered) GetJSON(ctx context.Context, key string, dest any) error {
	if err := t.l1.GetJSON(ctx, key, dest); err == nil {
		return nil
	}
	if t.l2 == nil {
		return ErrMiss
	}
	if err := t.l2.GetJSON(ctx, key, dest); err != nil {
		return err
	}
	if err := t.l1.SetJSON(ctx, key, dest, 0); err != nil {
		logger.Warn(ctx, "local cache backfill failed", "key", key, "error", err)
	}
	return nil
}

// SetJSON 同时写入两级缓存
func (t *Tiered) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := t.l1.SetJSON(ctx, key, value, ttl); err != nil {
		return err
	}
	if t.l2 == nil {
		return nil
	}
	return t.l2.SetJSON(ctx, key, value, ttl)
}

// Delete 同时删除两级缓存
func (t *Tiered) Delete(ctx context.Context, keys ...string) error {
	if err := t.l1.Delete(ctx, keys...); err != nil {
		return err
	}
	if t.l2 == nil {
		return nil
	}
	return t.l2.Delete(ctx, keys...)
}
