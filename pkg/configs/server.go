package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort                 = 8080             // 监听端口
	DefaultHost                 = "0.0.0.0"        // 监听地址
	DefaultReloadConfig         = true             // 是否启用配置热重载
	DefaultDebug                = false            // 是否启用调试模式
	DefaultTimeout              = 30               // 读取请求头超时，单位秒
	DefaultShutdownTimeout      = 15 * time.Second // 优雅退出等待时间
	DefaultMaxMultipartMemoryMB = 8                // multipart 解析时驻留内存的上限，超出部分落盘
)

type (
	// ServerConfig HTTP 服务配置.
	ServerConfig struct {
		Port                 int           `mapstructure:"port"                    rule:"min=1,max=65535"`
		Host                 string        `mapstructure:"host"                    rule:"ip"`
		ReloadConfig         bool          `mapstructure:"reload_config"`
		Debug                bool          `mapstructure:"debug"`
		Timeout              int           `mapstructure:"timeout"                 rule:"min=1,max=300"`
		ShutdownTimeout      time.Duration `mapstructure:"shutdown_timeout"`
		MaxMultipartMemoryMB int           `mapstructure:"max_multipart_memory_mb" rule:"min=1,max=1024"`
		AllowOrigins         []string      `mapstructure:"allow_origins"` // CORS 允许的来源，为空或 debug 时允许全部
	}
)

// GetTimeoutDuration 返回超时时间作为time.Duration.
func (s *ServerConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// MaxMultipartMemory 以字节返回 multipart 内存上限.
func (s *ServerConfig) MaxMultipartMemory() int64 {
	return int64(s.MaxMultipartMemoryMB) << 20
}

// setDefaults 设置服务器配置的默认值.
func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.reload_config", DefaultReloadConfig)
	v.SetDefault("server.debug", DefaultDebug)
	v.SetDefault("server.timeout", DefaultTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("server.max_multipart_memory_mb", DefaultMaxMultipartMemoryMB)
	v.SetDefault("server.allow_origins", []string{})
}
