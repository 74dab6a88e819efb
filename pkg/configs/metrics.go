package configs

import (
	"time"

	"github.com/spf13/viper"
)

// MetricsConfig Prometheus 指标，端点挂载在业务 HTTP 服务上.
type MetricsConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	Endpoint        string            `mapstructure:"endpoint"         rule:"startswith=/"` // 指标暴露路径
	CollectInterval time.Duration     `mapstructure:"collect_interval" rule:"min=1s"`       // 数据库连接池指标刷新间隔
	RuntimeMetrics  bool              `mapstructure:"runtime_metrics"`                      // 是否收集 Go 运行时与进程指标
	Pprof           bool              `mapstructure:"pprof"`                                // 是否暴露 /debug/pprof
	Labels          map[string]string `mapstructure:"labels"`                               // 附加到所有业务指标的常量标签
}

func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.endpoint", "/metrics")
	v.SetDefault("metrics.collect_interval", "15s")
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.pprof", false)
	v.SetDefault("metrics.labels", map[string]string{"service": "filevault"})
}
