package kv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/filevault/pkg/configs"
)

// GroupcacheKV 基于 Groupcache 的 KV 实现.
//
// 本节点写入的数据保存在 data 中并优先读取，本地没有的键再经 group 向对等节点查询.
// groupcache 不支持删除远端热缓存，因此跨节点失效依赖上层的代令牌换代.
type GroupcacheKV struct {
	group *groupcache.Group
	pool  *groupcache.HTTPPool
	data  map[string][]byte
	mu    sync.RWMutex
	now   func() time.Time
}

// peerGetter 对等节点回源时读取本地数据.
type peerGetter struct {
	kv *GroupcacheKV
}

func (g peerGetter) Get(_ context.Context, key string, dest groupcache.Sink) error {
	value, err := g.kv.local(key)
	if err != nil {
		return err
	}

	return dest.SetBytes(value)
}

// NewGroupcacheKV 创建 Groupcache KV 实例，同一进程内 group 名不可重复.
func NewGroupcacheKV(_ context.Context, cfg *configs.KVConfig) (KVStore, error) {
	if cfg == nil || cfg.Groupcache.Name == "" {
		return nil, errors.New("groupcache kv: group name is required")
	}

	if groupcache.GetGroup(cfg.Groupcache.Name) != nil {
		return nil, fmt.Errorf("groupcache kv: group %q already exists", cfg.Groupcache.Name)
	}

	kv := &GroupcacheKV{
		data: make(map[string][]byte),
		now:  time.Now,
	}

	kv.group = groupcache.NewGroup(cfg.Groupcache.Name, cfg.Groupcache.CacheBytes, peerGetter{kv: kv})

	if len(cfg.Groupcache.Peers) > 0 {
		kv.pool = groupcache.NewHTTPPoolOpts(cfg.Groupcache.Self, &groupcache.HTTPPoolOptions{})
		kv.pool.Set(cfg.Groupcache.Peers...)
	}

	return kv, nil
}

// Pool 返回对等节点的 HTTP 池，未配置对等节点时为 nil.
func (g *GroupcacheKV) Pool() *groupcache.HTTPPool { return g.pool }

func (g *GroupcacheKV) local(key string) ([]byte, error) {
	g.mu.RLock()
	raw, ok := g.data[key]
	g.mu.RUnlock()

	if !ok {
		return nil, notFound(key)
	}

	value, expired, err := decodeWithTTL(raw, g.now())
	if err != nil {
		return nil, err
	}

	if expired {
		g.mu.Lock()
		delete(g.data, key)
		g.mu.Unlock()

		return nil, notFound(key)
	}

	return value, nil
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	if value, err := g.local(key); err == nil {
		out := make([]byte, len(value))
		copy(out, value)

		return out, nil
	} else if !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}

	if g.pool == nil {
		return nil, notFound(key)
	}

	var data []byte
	if err := g.group.Get(ctx, key, groupcache.AllocatingByteSliceSink(&data)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrKeyNotFound, key, err)
	}

	return data, nil
}

// Set 设置键的值.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl, g.now())
	if err != nil {
		return err
	}

	data := make([]byte, len(encoded))
	copy(data, encoded)

	g.mu.Lock()
	g.data[key] = data
	g.mu.Unlock()

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.data, key)
	g.mu.Unlock()

	return nil
}

// Exists 检查键是否存在.
func (g *GroupcacheKV) Exists(_ context.Context, key string) (bool, error) {
	_, err := g.local(key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}

	return err == nil, err
}

// Keys 获取本地匹配模式的键.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.data))
	for key := range g.data {
		if matchKey(pattern, key) {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// Close groupcache 没有显式的关闭方法，只清空本地数据.
func (g *GroupcacheKV) Close() error {
	g.mu.Lock()
	g.data = make(map[string][]byte)
	g.mu.Unlock()

	return nil
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
