package configs

import (
	"net/url"

	"github.com/spf13/viper"
)

// S3Config MinIO/S3 对象存储配置，blob.type=s3 时使用.
type S3Config struct {
	// Endpoint 为 host:port，或带 http(s):// 的完整地址
	Endpoint        string `mapstructure:"endpoint"          rule:"required"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"       rule:"required,min=3,max=63"`
	Region          string `mapstructure:"region"`
	// AutoCreate 启动时存储桶不存在则创建
	AutoCreate      bool   `mapstructure:"auto_create"`
	// PartSizeMB 分片上传的分片大小
	PartSizeMB      uint64 `mapstructure:"part_size_mb"      rule:"gte=5,lte=5120"`
}

// Target 返回 minio 需要的 host 与是否使用 TLS. Endpoint 带 scheme 时以 scheme 为准.
func (c *S3Config) Target() (host string, secure bool) {
	if u, err := url.Parse(c.Endpoint); err == nil && u.Host != "" {
		return u.Host, u.Scheme == "https"
	}

	return c.Endpoint, c.UseSSL
}

// PartSize 以字节返回分片大小.
func (c *S3Config) PartSize() uint64 {
	return c.PartSizeMB << 20
}

func (c *S3Config) setDefaults(v *viper.Viper) {
	v.SetDefault("s3.endpoint", "localhost:9000")
	v.SetDefault("s3.access_key_id", "minioadmin")
	v.SetDefault("s3.secret_access_key", "minioadmin")
	v.SetDefault("s3.use_ssl", false)
	v.SetDefault("s3.bucket_name", "filevault")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.auto_create", true)
	v.SetDefault("s3.part_size_mb", 16)
}
