package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/rule"
)

const ginUserKey = "user"

// AuthMiddleware 基于 oauth2-proxy 注入的请求头做统一身份认证校验。
//   - 依次读取 auth.user_headers，默认 X-Auth-Request-Email、X-Forwarded-Email、X-User
//   - 支持通过配置跳过某些路径（如 /metrics, /health）
//   - 开发模式可允许 query user 兜底（由 configs.auth.dev_allow_query 控制）
//   - 认证关闭时缺省使用 auth.dev_default_user.
//
// 识别出的用户写入 gin.Context 与 request.Context，通过 GetUser 读取.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := identify(c, conf)
		skipped := isSkippedPath(c.Request.URL.Path, conf.SkipPaths)

		if user == "" && !conf.Enabled {
			user = strings.TrimSpace(conf.DevDefaultUser)
		}

		if user == "" {
			if conf.Enabled && !skipped {
				abort(c, http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
				return
			}

			c.Next()

			return
		}

		if err := rule.ValidateVar(user, "required,email"); err != nil {
			if skipped {
				c.Next()
				return
			}

			abort(c, http.StatusUnauthorized, CodeUnauthorized, "invalid user identity")

			return
		}

		c.Set(ginUserKey, user)
		c.Request = c.Request.WithContext(ctxPkg.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

// identify 从请求头或开发模式的 ?user= 读取身份.
func identify(c *gin.Context, conf configs.AuthConfig) string {
	for _, h := range conf.IdentityHeaders() {
		if v := strings.TrimSpace(c.GetHeader(h)); v != "" {
			return v
		}
	}

	if conf.DevAllowQuery {
		return strings.TrimSpace(c.Query("user"))
	}

	return ""
}

// GetUser 返回当前请求的用户，未认证时为空.
func GetUser(c *gin.Context) string {
	if u := c.GetString(ginUserKey); u != "" {
		return u
	}

	return ctxPkg.User(c.Request.Context())
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
