package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）.
type EventsConfig struct {
	Enabled bool             `mapstructure:"enabled"` // 总开关
	File    FileEventsConfig `mapstructure:"file"`
}

// FileEventsConfig 文件领域的事件开关.
type FileEventsConfig struct {
	Uploaded bool `mapstructure:"uploaded"` // 每次上传（包括命中去重）
	Deleted  bool `mapstructure:"deleted"`  // 删除文件记录
	Orphaned bool `mapstructure:"orphaned"` // 内容引用归零但对象删除失败
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)

	v.SetDefault("events.file.uploaded", true)
	v.SetDefault("events.file.deleted", true)
	// 孤儿事件驱动对象清理重试，默认开启
	v.SetDefault("events.file.orphaned", true)
}
