package configs

import "github.com/spf13/viper"

// BlobType 文件内容存储后端类型.
type BlobType string

const (
	BlobTypeS3     BlobType = "s3"
	BlobTypeLocal  BlobType = "local"
	BlobTypeMemory BlobType = "memory"

	DefaultBlobLocalRoot = "data/blobs"
)

// BlobConfig 文件内容（原件与预览图）的存储后端.
type BlobConfig struct {
	Type      BlobType `mapstructure:"type"       rule:"oneof=s3 local memory"`
	LocalRoot string   `mapstructure:"local_root" rule:"required_if=Type local"` // local 后端的根目录
}

func (c *BlobConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("blob.type", BlobTypeS3)
	v.SetDefault("blob.local_root", DefaultBlobLocalRoot)
}
