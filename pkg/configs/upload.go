package configs

import "github.com/spf13/viper"

const (
	DefaultUploadMaxFileSizeMB = 50
	DefaultQuotaBytesPerUser   = 10 * 1024 * 1024 * 1024 // 10 GiB
)

// DefaultAllowedMimeTypes 默认允许上传的 MIME 类型.
var DefaultAllowedMimeTypes = []string{"image/png", "image/jpeg", "text/plain", "application/pdf"}

// UploadConfig 上传限制与用户配额.
type UploadConfig struct {
	MaxFileSizeMB     int64    `mapstructure:"max_file_size_mb"     rule:"min=1"`
	AllowedMimeTypes  []string `mapstructure:"allowed_mime_types"   rule:"min=1,dive,mimetype"`
	QuotaBytesPerUser int64    `mapstructure:"quota_bytes_per_user"` // <= 0 表示不限制
	MaxBulkFiles      int      `mapstructure:"max_bulk_files"       rule:"min=1"`
}

// MaxFileSizeBytes 单文件上限（字节）.
func (c *UploadConfig) MaxFileSizeBytes() int64 {
	return c.MaxFileSizeMB * 1024 * 1024
}

func (c *UploadConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("upload.max_file_size_mb", DefaultUploadMaxFileSizeMB)
	v.SetDefault("upload.allowed_mime_types", DefaultAllowedMimeTypes)
	v.SetDefault("upload.quota_bytes_per_user", DefaultQuotaBytesPerUser)
	v.SetDefault("upload.max_bulk_files", 20)
}
