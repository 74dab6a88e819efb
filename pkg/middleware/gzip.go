package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// streamPaths 直接输出文件内容的路由，内容多为已压缩格式，不再做 gzip.
var streamPaths = []string{
	`^/api/v1/files/[^/]+/(download|preview)$`,
	`^/p/`,
	`^/metrics`,
	`^/debug/pprof`,
}

// GzipMiddleware 压缩 JSON 响应，跳过文件流.
func GzipMiddleware() gin.HandlerFunc {
	return gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs(streamPaths))
}
