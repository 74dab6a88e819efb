package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultShareTTLMinutes = 60
	DefaultShareCacheTTL   = 30 * time.Second
)

// ShareConfig 公开分享链接配置.
type ShareConfig struct {
	DefaultTTLMinutes int           `mapstructure:"default_ttl_minutes" rule:"min=0"`
	BaseURL           string        `mapstructure:"base_url"            rule:"omitempty,url"` // 生成链接使用的外部地址，为空时使用请求 Host
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`                                // 链接元数据在 KV 中的缓存时间
}

func (c *ShareConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("share.default_ttl_minutes", DefaultShareTTLMinutes)
	v.SetDefault("share.base_url", "")
	v.SetDefault("share.cache_ttl", DefaultShareCacheTTL)
}
