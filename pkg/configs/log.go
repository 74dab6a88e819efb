package configs

import "github.com/spf13/viper"

// LogConfig 日志输出. stderr 总是开启，file 为可选的滚动文件.
type LogConfig struct {
	Level  string        `mapstructure:"level"  rule:"oneof=trace debug info warn error fatal panic disabled"`
	Format string        `mapstructure:"format" rule:"oneof=console json"` // console 便于本地阅读，json 便于采集
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig 由 lumberjack 负责按大小滚动与清理.
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"  rule:"min=1"`
	MaxBackups int    `mapstructure:"max_backups"  rule:"min=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" rule:"min=0"`
	Compress   bool   `mapstructure:"compress"`
}

func (l *LogConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file.enabled", false)
	v.SetDefault("log.file.path", "logs/filevault.log")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.max_age_days", 28)
	v.SetDefault("log.file.compress", true)
}
