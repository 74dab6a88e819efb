package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
)

// CORSMiddleware 按 server.allow_origins 放行跨域请求，未配置或 debug 时允许全部来源.
// 身份与角色请求头取自 auth 配置，暴露 Content-Disposition 以便浏览器读取下载文件名.
func CORSMiddleware(server configs.ServerConfig, auth configs.AuthConfig) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Range", "If-None-Match", "X-Cache-Bypass"},
		ExposeHeaders: []string{"Content-Disposition", "Content-Range", "X-Cache", "ETag", "Age", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	config.AddAllowHeaders(auth.IdentityHeaders()...)
	if auth.TrustRoleHeader {
		config.AddAllowHeaders(auth.RoleHeaderName())
	}

	if server.Debug || len(server.AllowOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = server.AllowOrigins
		config.AllowCredentials = true
	}

	return cors.New(config)
}
