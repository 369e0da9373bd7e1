package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultCacheEnabled = true
	DefaultCacheTTL     = time.Minute
)

// CacheConfig 查询结果缓存配置（列表、统计、类型、重复文件）.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" rule:"min=0"`
	Prefix  string        `mapstructure:"prefix"`
}

func (c *CacheConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cache.enabled", DefaultCacheEnabled)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("cache.prefix", "fv")
}
