// Package cache 提供基于键值存储的泛型缓存实现，用于缓存文件列表、统计等查询结果.
//
// 所有键都带有一个"代"（generation）令牌，令牌本身也保存在 KV 中.
// 写操作调用 Invalidate 换一个新令牌，旧代的键不再被读到，随 TTL 自然过期；
// 多个实例共用 redis / nats KV 时，一次 Invalidate 对所有实例生效.
//
// 基本用法:
//
//	c := cache.NewCache(kvStore, "fv")
//
//	files, err := cache.GetOrSet(ctx, c, "list:"+q.CacheKey(), func() (Page, error) {
//		return loadFromDB(ctx, q)
//	}, time.Minute)
//
//	// 上传或删除之后
//	_ = c.Invalidate(ctx)
//
// 错误处理:
//   - 缓存未命中时 Get 返回 kv.ErrKeyNotFound
//   - GetOrSet 在 KV 不可用时直接调用 getter，缓存故障不影响业务结果
//   - 同一个键的并发未命中通过 singleflight 合并为一次 getter 调用
package cache

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/oklog/ulid"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/filevault/pkg/internal/storage/kv"
	"github.com/yeisme/filevault/pkg/metrics"
)

const genKeySuffix = "gen"

// Cache 基于KV存储的缓存实现. nil *Cache 表示禁用缓存.
type Cache struct {
	kvStore kv.KVStore
	prefix  string
	group   singleflight.Group
}

// NewCache 创建一个新的缓存实例，prefix 为所有键的命名空间.
func NewCache(kvStore kv.KVStore, prefix string) *Cache {
	return &Cache{
		kvStore: kvStore,
		prefix:  strings.TrimSuffix(prefix, ":"),
	}
}

// generation 读取当前代令牌，不存在时创建.
func (c *Cache) generation(ctx context.Context) (string, error) {
	genKey := c.prefix + ":" + genKeySuffix

	b, err := c.kvStore.Get(ctx, genKey)
	if err == nil && len(b) > 0 {
		return string(b), nil
	}

	if err != nil && !errors.Is(err, kv.ErrKeyNotFound) {
		return "", err
	}

	return c.rotate(ctx)
}

// rotate 写入新的代令牌.
func (c *Cache) rotate(ctx context.Context) (string, error) {
	token := ulid.MustNew(ulid.Timestamp(time.Now()), crand.Reader).String()
	if err := c.kvStore.Set(ctx, c.prefix+":"+genKeySuffix, []byte(token), 0); err != nil {
		return "", fmt.Errorf("rotate cache generation: %w", err)
	}

	return token, nil
}

// Key 返回逻辑键在当前代下的完整键.
func (c *Cache) Key(ctx context.Context, key string) (string, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", err
	}

	return c.prefix + ":" + gen + ":" + key, nil
}

// Invalidate 使当前代的所有键失效.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}

	_, err := c.rotate(ctx)

	return err
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	full, err := c.Key(ctx, key)
	if err != nil {
		return zero, err
	}

	data, err := c.kvStore.Get(ctx, full)
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	full, err := c.Key(ctx, key)
	if err != nil {
		return err
	}

	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, full, data, ttl)
}

// Delete 删除当前代下的缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	full, err := c.Key(ctx, key)
	if err != nil {
		return err
	}

	return c.kvStore.Delete(ctx, full)
}

// Exists 检查当前代下的缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	full, err := c.Key(ctx, key)
	if err != nil {
		return false, err
	}

	return c.kvStore.Exists(ctx, full)
}

// GetOrSet 获取缓存值，如果不存在则调用 getter 并写回.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	if c == nil {
		return getter()
	}

	full, err := c.Key(ctx, key)
	if err != nil {
		// KV 不可用，绕过缓存
		return getter()
	}

	if data, err := c.kvStore.Get(ctx, full); err == nil {
		var value T
		if sonic.Unmarshal(data, &value) == nil {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			return value, nil
		}
	}

	metrics.CacheRequests.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do(full, func() (any, error) {
		value, err := getter()
		if err != nil {
			return value, err
		}

		if data, mErr := sonic.Marshal(value); mErr == nil {
			// 写缓存失败不影响返回值
			_ = c.kvStore.Set(ctx, full, data, ttl)
		}

		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unexpected cache value type %T", v)
	}

	return value, nil
}

// Clear 删除本缓存命名空间下的所有键（包括代令牌）.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.kvStore.Keys(ctx, c.prefix+":*")
	if err != nil {
		return err
	}

	for _, key := range keys {
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return delErr
		}
	}

	return nil
}
