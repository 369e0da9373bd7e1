package configs

import (
	"time"

	"github.com/spf13/viper"
)

// KVConfig 键值存储配置.
type KVConfig struct {
	Type       string             `mapstructure:"type"       rule:"oneof=memory redis nats groupcache"`
	Memory     MemoryKVConfig     `mapstructure:"memory"`
	Redis      RedisKVConfig      `mapstructure:"redis"`
	NATS       NATSKVConfig       `mapstructure:"nats"`
	Groupcache GroupcacheKVConfig `mapstructure:"groupcache"`
}

// MemoryKVConfig 进程内 LRU KV 配置.
type MemoryKVConfig struct {
	Size       int           `mapstructure:"size"        rule:"min=1"` // 最大条目数
	DefaultTTL time.Duration `mapstructure:"default_ttl"`              // 未指定 TTL 时的过期时间，0 表示不过期
}

// RedisKVConfig Redis KV 配置.
type RedisKVConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"         rule:"min=0,max=15"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// NATSKVConfig NATS KV 配置.
type NATSKVConfig struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Bucket   string `mapstructure:"bucket"`
}

// GroupcacheKVConfig Groupcache KV 配置.
type GroupcacheKVConfig struct {
	Name       string   `mapstructure:"name"`
	CacheBytes int64    `mapstructure:"cache_bytes"`
	Peers      []string `mapstructure:"peers"`
	Self       string   `mapstructure:"self"`
}

const (
	DefaultKVType          = "memory"
	DefaultMemoryKVSize    = 4096
	maxGroupcacheCacheSize = 64 * 1024 * 1024 // 64MB
)

// GetKVType 返回当前配置的 KV 类型.
func (c *KVConfig) GetKVType() string {
	return c.Type
}

// setDefaults 设置 KV 配置的默认值.
func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", DefaultKVType)

	// Memory 默认值
	v.SetDefault("kv.memory.size", DefaultMemoryKVSize)
	v.SetDefault("kv.memory.default_ttl", 0)

	// Redis 默认值
	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.password", "")
	v.SetDefault("kv.redis.db", 0)
	v.SetDefault("kv.redis.key_prefix", AppName+":")

	// NATS 默认值
	v.SetDefault("kv.nats.url", "nats://localhost:4222")
	v.SetDefault("kv.nats.user", "")
	v.SetDefault("kv.nats.password", "")
	v.SetDefault("kv.nats.bucket", AppName+"-kv")

	// Groupcache 默认值
	v.SetDefault("kv.groupcache.name", AppName+"-cache")
	v.SetDefault("kv.groupcache.cache_bytes", maxGroupcacheCacheSize)
	v.SetDefault("kv.groupcache.peers", []string{})
	v.SetDefault("kv.groupcache.self", "http://localhost:8080")
}
