// Package configs 管理应用程序配置，包括数据库、对象存储、队列以及上传、预览、分享等业务配置.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing upload config:
//
//	config := configs.GetConfig()
//	maxBytes := config.Upload.MaxFileSizeBytes()
//	fmt.Println("max upload:", maxBytes)
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/filevault/pkg/rule"
)

// EnvPrefix 环境变量前缀，例如 FILEVAULT_SERVER_PORT.
const EnvPrefix = "FILEVAULT"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 服务器端口、调试模式等
		DB             DBConfig             `mapstructure:"db"`              // DBConfig 数据库配置
		S3             S3Config             `mapstructure:"s3"`              // S3Config 对象存储配置
		Blob           BlobConfig           `mapstructure:"blob"`            // BlobConfig 文件内容存储后端
		KV             KVConfig             `mapstructure:"kv"`              // KVConfig 键值缓存配置
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 消息队列配置
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 指标配置
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 链路追踪配置
		Upload         UploadConfig         `mapstructure:"upload"`          // UploadConfig 上传限制与配额
		Preview        PreviewConfig        `mapstructure:"preview"`         // PreviewConfig 预览生成
		Share          ShareConfig          `mapstructure:"share"`           // ShareConfig 分享链接
		Retention      RetentionConfig      `mapstructure:"retention"`       // RetentionConfig 回收站保留策略
		Folder         FolderConfig         `mapstructure:"folder"`          // FolderConfig 目录层级限制
		Auth           AuthConfig           `mapstructure:"auth"`            // AuthConfig 身份认证
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 熔断
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// 找不到配置文件时使用默认值.
func InitConfig(path string) error {
	appViper = viper.New()
	// 设置默认值
	setAllDefaults(appViper)

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，使用SetConfigFile，Viper会自动检测类型
		appViper.SetConfigFile(path)
	} else {
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(filepath.Join(path, "configs"))

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.SetEnvPrefix(EnvPrefix)
	appViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	appViper.AutomaticEnv()

	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := load(appViper)
	if err != nil {
		return err
	}

	globalConfig = *cfg

	reloadConfigs(appViper, globalConfig.Server.ReloadConfig)

	return nil
}

// load 解析并校验配置.
func load(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := rule.ValidateStruct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.KV.Groupcache.check(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var c AppConfig

	c.Server.setDefaults(v)
	c.DB.setDefaults(v)
	c.S3.setDefaults(v)
	c.Blob.setDefaults(v)
	c.KV.setDefaults(v)
	c.MQ.setDefaults(v)
	c.Log.setDefaults(v)
	c.Metrics.setDefaults(v)
	c.Tracing.setDefaults(v)
	c.Upload.setDefaults(v)
	c.Preview.setDefaults(v)
	c.Share.setDefaults(v)
	c.Retention.setDefaults(v)
	c.Folder.setDefaults(v)
	c.Auth.setDefaults(v)
	c.RateLimit.setDefaults(v)
	c.CircuitBreaker.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload || v.ConfigFileUsed() == "" {
		return
	}
	// 启用配置热重载
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)

		cfg, err := load(v)
		if err != nil {
			fmt.Printf("Error reloading config, keeping previous: %v\n", err)

			return
		}

		globalConfig = *cfg
	})
	v.WatchConfig()
}

// Default 返回只包含默认值的配置，不读取文件与环境变量.
func Default() *AppConfig {
	v := viper.New()
	setAllDefaults(v)

	cfg, err := load(v)
	if err != nil {
		panic(err)
	}

	return cfg
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

func GetViper() *viper.Viper {
	return appViper
}
