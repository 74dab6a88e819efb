package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/log"
)

// quietPaths 成功时只记 debug 日志的路径前缀.
var quietPaths = []string{"/metrics", "/api/v1/health", "/debug/pprof"}

// GinLoggerMiddleware 使用 zerolog 记录访问日志，附带 trace_id 与认证用户. 5xx 为 error，4xx 为 warn.
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		logger := ctxPkg.Logger(c.Request.Context(), *log.Logger())

		event := logger.WithLevel(accessLevel(c.Request.URL.Path, status))
		if event == nil {
			return
		}

		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		event = event.
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("route", c.FullPath()).
			Int("size", c.Writer.Size()).
			Str("client_ip", c.ClientIP())

		if len(c.Errors) > 0 {
			event = event.Str("error", strings.TrimSpace(c.Errors.String()))
		}

		event.Msg("HTTP request")
	}
}

func accessLevel(path string, status int) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status >= http.StatusBadRequest:
		return zerolog.WarnLevel
	case isSkippedPath(path, quietPaths):
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}
