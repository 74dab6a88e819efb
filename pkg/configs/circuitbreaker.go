package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CircuitBreakerConfig 熔断器配置. 只有 5xx 响应计为失败.
type CircuitBreakerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// PerRoute 每个路由模板一个熔断器，关闭时全站共用一个.
	PerRoute bool `mapstructure:"per_route"`

	FailureRate float64       `mapstructure:"failure_rate" rule:"gte=0,lte=1"`
	MinRequests uint32        `mapstructure:"min_requests"`
	Interval    time.Duration `mapstructure:"interval"` // 统计窗口，0 表示关闭状态下不清零
	Timeout     time.Duration `mapstructure:"timeout"`  // 打开后多久进入半开

	MaxRequestsInHalf uint32   `mapstructure:"max_requests_in_half"`
	SkipPaths         []string `mapstructure:"skip_paths"`
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.per_route", true)
	v.SetDefault("circuit_breaker.failure_rate", 0.5)
	v.SetDefault("circuit_breaker.min_requests", 20)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.max_requests_in_half", 5)
	v.SetDefault("circuit_breaker.skip_paths", []string{"/api/v1/health", "/metrics", "/debug/pprof"})
}
