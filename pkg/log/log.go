// Package log 构建全局 zerolog 日志器：stderr 输出可选 console 或 json 格式，另可写入 lumberjack 滚动文件.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/yeisme/filevault/pkg/configs"
)

var (
	logger   zerolog.Logger
	initOnce sync.Once
)

// Init 按全局配置初始化日志器并设置 gin 运行模式，只生效一次.
func Init() {
	initOnce.Do(func() {
		cfg := configs.GetConfig()

		l, err := New(cfg.Log, cfg.Server.Debug, os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log: %v, falling back to info\n", err)
		}

		if cfg.Server.Debug {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}

		logger = l
		zlog.Logger = l
	})
}

// New 按配置创建日志器. 级别非法时返回 info 级别的日志器与错误.
// debug 为 true 时附带调用位置.
func New(cfg configs.LogConfig, debug bool, stderr io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	// ParseLevel 对空串返回 NoLevel
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	writers := []io.Writer{consoleOrJSON(cfg.Format, stderr)}

	if f := cfg.File; f.Enabled && f.Path != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   f.Path,
			MaxSize:    f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAge:     f.MaxAgeDays,
			Compress:   f.Compress,
		})
	}

	lc := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(lvl).With().Timestamp().Str("service", "filevault")
	if debug {
		lc = lc.Caller()
	}

	return lc.Logger(), err
}

// consoleOrJSON json 格式原样写出，其余使用 ConsoleWriter.
func consoleOrJSON(format string, w io.Writer) io.Writer {
	if strings.EqualFold(format, "json") {
		return w
	}

	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
}

// Logger 返回全局日志器，首次调用时初始化.
func Logger() *zerolog.Logger {
	Init()

	return &logger
}

// Component 返回带 component 字段的子日志器.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// Nop 丢弃全部输出，测试注入用.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()

	return &l
}

// GinWriter 把 gin 的文本输出转为 zerolog 事件.
type GinWriter struct {
	logger *zerolog.Logger
	level  zerolog.Level
}

// NewGinWriter 用于 gin.DefaultWriter 与 gin.DefaultErrorWriter.
func NewGinWriter(logger *zerolog.Logger, level zerolog.Level) *GinWriter {
	return &GinWriter{logger: logger, level: level}
}

// Write 去掉 [GIN-debug] 前缀，[WARNING] 开头的行至少按 warn 记录.
func (w *GinWriter) Write(p []byte) (int, error) {
	msg := strings.TrimPrefix(strings.TrimSpace(string(p)), "[GIN-debug] ")

	level := w.level
	if rest, ok := strings.CutPrefix(msg, "[WARNING] "); ok {
		msg = rest
		level = max(level, zerolog.WarnLevel)
	}

	w.logger.WithLevel(level).Msg(msg)

	return len(p), nil
}
