package configs

import "github.com/spf13/viper"

const (
	DefaultRetentionDays = 30
	DefaultRetentionCron = "0 3 * * *"
)

// RetentionConfig 回收站保留策略，超过 Days 的软删除文件会被清理.
type RetentionConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Days    int    `mapstructure:"days"    rule:"min=0"`
	Cron    string `mapstructure:"cron"    rule:"required"`
}

func (c *RetentionConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("retention.enabled", true)
	v.SetDefault("retention.days", DefaultRetentionDays)
	v.SetDefault("retention.cron", DefaultRetentionCron)
}
