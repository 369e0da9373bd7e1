// Package configs 管理应用程序配置，包括数据库、对象存储、缓存和消息队列的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing Upload config:
//
//	config := configs.GetConfig()
//	maxSize := config.Upload.MaxSize
//	fmt.Println("Max upload size:", maxSize)
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/filevault/pkg/rule"
)

const (
	AppName    = "filevault" // 应用名称，用于日志、指标、存储桶等默认值
	AppVersion = "1.0.0"     // 应用版本
	EnvPrefix  = "FILEVAULT" // 环境变量前缀，例如 FILEVAULT_SERVER_PORT
)

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // 服务器配置，端口、调试模式等
		DB             DBConfig             `mapstructure:"db"`              // 元数据库配置
		S3             S3Config             `mapstructure:"s3"`              // 对象存储配置
		KV             KVConfig             `mapstructure:"kv"`              // 键值存储配置（查询缓存）
		MQ             MQConfig             `mapstructure:"mq"`              // 消息队列配置
		Log            LogConfig            `mapstructure:"log"`             // 日志相关配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // 指标配置
		Tracing        TracingConfig        `mapstructure:"tracing"`         // 链路追踪配置
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // 限流配置
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // 熔断配置
		Events         EventsConfig         `mapstructure:"events"`          // 事件发布开关
		Upload         UploadConfig         `mapstructure:"upload"`          // 上传限制
		Cache          CacheConfig          `mapstructure:"cache"`           // 查询结果缓存
		Jobs           JobsConfig           `mapstructure:"jobs"`            // 定时任务
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
	// mu 保护热重载期间的 globalConfig.
	mu sync.RWMutex
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// 找不到配置文件时仅使用默认值与环境变量.
func InitConfig(path string) error {
	appViper = viper.New()
	// 设置默认值
	setAllDefaults(appViper)

	if path == "" {
		path = "."
	}

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，使用SetConfigFile，Viper会自动检测类型
		appViper.SetConfigFile(path)
	} else {
		// 是目录，设置配置名和路径
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(filepath.Join(path, "configs"))

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.SetEnvPrefix(EnvPrefix)
	appViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	appViper.AutomaticEnv()

	// 读取配置
	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := load(appViper)
	if err != nil {
		return err
	}

	mu.Lock()
	globalConfig = cfg
	mu.Unlock()

	if appViper.ConfigFileUsed() != "" {
		reloadConfigs(appViper, cfg.Server.ReloadConfig)
	}

	return nil
}

// load 解析并校验配置.
func load(v *viper.Viper) (AppConfig, error) {
	var cfg AppConfig

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := rule.ValidateStruct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	sections := []interface{ setDefaults(*viper.Viper) }{
		&ServerConfig{},
		&DBConfig{},
		&S3Config{},
		&KVConfig{},
		&MQConfig{},
		&LogConfig{},
		&MetricsConfig{},
		&TracingConfig{},
		&RateLimitConfig{},
		&CircuitBreakerConfig{},
		&EventsConfig{},
		&UploadConfig{},
		&CacheConfig{},
		&JobsConfig{},
	}

	for _, s := range sections {
		s.setDefaults(v)
	}
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}
	// 启用配置热重载，新配置校验失败时保留旧配置
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)

		cfg, err := load(v)
		if err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
			return
		}

		mu.Lock()
		globalConfig = cfg
		mu.Unlock()
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	mu.RLock()
	defer mu.RUnlock()

	return &globalConfig
}

// GetViper 返回全局 Viper 实例，未初始化时为 nil.
func GetViper() *viper.Viper {
	return appViper
}
