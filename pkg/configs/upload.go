package configs

import "github.com/spf13/viper"

const (
	DefaultUploadMaxSize    = 10 * 1024 * 1024 // 单文件上限 10MB
	DefaultUploadObjectDir  = "uploads"         // 对象键前缀
	DefaultUploadFormField  = "file"            // multipart 字段名
	DefaultUploadMemoryBody = 32 << 20          // multipart 解析时的内存上限
)

// UploadConfig 上传相关配置.
type UploadConfig struct {
	MaxSize   int64  `mapstructure:"max_size"   rule:"min=1"`
	ObjectDir string `mapstructure:"object_dir" rule:"required"`
	FormField string `mapstructure:"form_field" rule:"required"`
	// MaxMemory multipart 表单在内存中保留的最大字节数，超出部分写入临时文件
	MaxMemory int64 `mapstructure:"max_memory" rule:"min=1"`
}

func (c *UploadConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("upload.max_size", DefaultUploadMaxSize)
	v.SetDefault("upload.object_dir", DefaultUploadObjectDir)
	v.SetDefault("upload.form_field", DefaultUploadFormField)
	v.SetDefault("upload.max_memory", DefaultUploadMemoryBody)
}
