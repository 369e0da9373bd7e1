package configs

import "github.com/spf13/viper"

const (
	DefaultJobsEnabled       = true
	DefaultOrphanCleanupCron = "30 3 * * *" // 每天 03:30
	DefaultOrphanConsumer    = true
)

// JobsConfig 后台任务配置.
type JobsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// OrphanCleanupCron 清理引用计数归零的内容及其对象的 cron 表达式
	OrphanCleanupCron string `mapstructure:"orphan_cleanup_cron" rule:"required"`
	// OrphanConsumer 是否订阅 content.orphaned 事件并重试删除对象
	OrphanConsumer bool `mapstructure:"orphan_consumer"`
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.enabled", DefaultJobsEnabled)
	v.SetDefault("jobs.orphan_cleanup_cron", DefaultOrphanCleanupCron)
	v.SetDefault("jobs.orphan_consumer", DefaultOrphanConsumer)
}
