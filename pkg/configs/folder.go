package configs

import "github.com/spf13/viper"

// DefaultFolderMaxDepth 目录最大嵌套深度.
const DefaultFolderMaxDepth = 64

// FolderConfig 目录配置.
type FolderConfig struct {
	MaxDepth int `mapstructure:"max_depth" rule:"min=1"`
}

func (c *FolderConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("folder.max_depth", DefaultFolderMaxDepth)
}
