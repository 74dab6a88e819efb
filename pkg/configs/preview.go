package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPreviewMaxDimension         = 300
	DefaultPreviewFrameOffset          = 500 * time.Millisecond
	DefaultPreviewFFmpegPath           = "ffmpeg"
	DefaultPreviewWorkers              = 4
	DefaultPreviewMaxRetries           = 5
	DefaultPreviewRetryBackoff         = 2 * time.Second
	DefaultPreviewMaxRetryBackoff      = time.Minute
	DefaultPreviewMaxGenerationRetries = 1
	DefaultPreviewJPEGQuality          = 85
	DefaultPreviewRequeueAfter         = 10 * time.Minute
	DefaultPreviewRequeueCron          = "*/15 * * * *"
	DefaultPreviewRequeueMaxAge        = 24 * time.Hour
)

// PreviewConfig 预览图生成配置.
type PreviewConfig struct {
	Enabled              bool          `mapstructure:"enabled"`
	MaxDimension         int           `mapstructure:"max_dimension"          rule:"min=16,max=4096"`
	FrameOffset          time.Duration `mapstructure:"frame_offset"`
	FFmpegPath           string        `mapstructure:"ffmpeg_path"`
	Workers              int           `mapstructure:"workers"                rule:"min=1,max=256"`
	MaxRetries           int           `mapstructure:"max_retries"            rule:"min=0"`
	RetryBackoff         time.Duration `mapstructure:"retry_backoff"`
	MaxRetryBackoff      time.Duration `mapstructure:"max_retry_backoff"`
	MaxGenerationRetries int           `mapstructure:"max_generation_retries" rule:"min=0"`
	JPEGQuality          int           `mapstructure:"jpeg_quality"           rule:"min=1,max=100"`
	RequeueAfter         time.Duration `mapstructure:"requeue_after"`
	RequeueCron          string        `mapstructure:"requeue_cron"`
	RequeueMaxAge        time.Duration `mapstructure:"requeue_max_age"` // 超过该时间仍无预览的文件不再重新入队
}

func (c *PreviewConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("preview.enabled", true)
	v.SetDefault("preview.max_dimension", DefaultPreviewMaxDimension)
	v.SetDefault("preview.frame_offset", DefaultPreviewFrameOffset)
	v.SetDefault("preview.ffmpeg_path", DefaultPreviewFFmpegPath)
	v.SetDefault("preview.workers", DefaultPreviewWorkers)
	v.SetDefault("preview.max_retries", DefaultPreviewMaxRetries)
	v.SetDefault("preview.retry_backoff", DefaultPreviewRetryBackoff)
	v.SetDefault("preview.max_retry_backoff", DefaultPreviewMaxRetryBackoff)
	v.SetDefault("preview.max_generation_retries", DefaultPreviewMaxGenerationRetries)
	v.SetDefault("preview.jpeg_quality", DefaultPreviewJPEGQuality)
	v.SetDefault("preview.requeue_after", DefaultPreviewRequeueAfter)
	v.SetDefault("preview.requeue_cron", DefaultPreviewRequeueCron)
	v.SetDefault("preview.requeue_max_age", DefaultPreviewRequeueMaxAge)
}
