package kv

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yeisme/filevault/pkg/configs"
)

// MemoryKV 基于 LRU 的进程内 KV 实现.
// 容量满时淘汰最久未使用的键；整体过期时间取 DefaultTTL，单键 TTL 通过包装值实现.
type MemoryKV struct {
	lru *expirable.LRU[string, []byte]
	now func() time.Time
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(_ context.Context, cfg *configs.KVConfig) (KVStore, error) {
	size := configs.DefaultMemoryKVSize

	var ttl time.Duration

	if cfg != nil {
		if cfg.Memory.Size > 0 {
			size = cfg.Memory.Size
		}

		ttl = cfg.Memory.DefaultTTL
	}

	return &MemoryKV{
		lru: expirable.NewLRU[string, []byte](size, nil, ttl),
		now: time.Now,
	}, nil
}

// Get 获取键的值.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	raw, ok := m.lru.Get(key)
	if !ok {
		return nil, notFound(key)
	}

	value, expired, err := decodeWithTTL(raw, m.now())
	if err != nil {
		return nil, err
	}

	if expired {
		m.lru.Remove(key)
		return nil, notFound(key)
	}

	// 返回副本
	out := make([]byte, len(value))
	copy(out, value)

	return out, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl, m.now())
	if err != nil {
		return err
	}

	data := make([]byte, len(encoded))
	copy(data, encoded)

	m.lru.Add(key, data)

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.Get(ctx, key)

	return err == nil, nil
}

// Keys 获取匹配模式的键.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)

	for _, k := range m.lru.Keys() {
		if matchKey(pattern, k) {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

// Close 清空缓存.
func (m *MemoryKV) Close() error {
	m.lru.Purge()
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
