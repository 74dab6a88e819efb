package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultRateLimitRPS     = 50.0
	DefaultRateLimitBurst   = 100
	DefaultRateLimitKey     = "user"
	DefaultRateLimitIdleTTL = 10 * time.Minute
)

// RateLimitConfig 请求限流，超出时返回 429.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   rule:"gte=0"`
	Burst   int     `mapstructure:"burst" rule:"gte=0"`
	// Key 限流维度：global、ip、user 或 header:Header-Name，取不到时回退到客户端 IP
	Key       string        `mapstructure:"key"`
	IdleTTL   time.Duration `mapstructure:"idle_ttl"`   // 按键限流器闲置多久后回收
	SkipPaths []string      `mapstructure:"skip_paths"` // 不限流的路径前缀
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
	v.SetDefault("rate_limit.idle_ttl", DefaultRateLimitIdleTTL)
	v.SetDefault("rate_limit.skip_paths", []string{"/api/v1/health", "/metrics"})
}
