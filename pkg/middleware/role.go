package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
)

// Role 请求方角色，数值越大权限越高.
type Role int

const (
	RoleUser Role = iota + 1
	RoleAdmin
)

// String 返回角色的字符串表示.
func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}

	return "user"
}

type roleKey struct{}

const ginRoleKey = "role"

// parseRole 未知值降级为 user.
func parseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), "admin") {
		return RoleAdmin
	}

	return RoleUser
}

// RoleMiddleware 确定请求方角色并注入 gin.Context 与 request.Context，需放在 AuthMiddleware 之后.
// auth.admins 中的用户始终为 admin；auth.trust_role_header 开启时接受网关注入的角色头.
func RoleMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := RoleUser

		switch user := GetUser(c); {
		case user != "" && slices.ContainsFunc(conf.Admins, func(a string) bool { return strings.EqualFold(a, user) }):
			r = RoleAdmin
		case conf.TrustRoleHeader:
			r = parseRole(c.GetHeader(conf.RoleHeaderName()))
		}

		c.Set(ginRoleKey, r)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), roleKey{}, r))
		c.Next()
	}
}

// GetRole 返回当前请求角色，未经过 RoleMiddleware 时为 user.
func GetRole(c *gin.Context) Role {
	if v, ok := c.Get(ginRoleKey); ok {
		if r, ok := v.(Role); ok {
			return r
		}
	}

	if r, ok := c.Request.Context().Value(roleKey{}).(Role); ok {
		return r
	}

	return RoleUser
}

// RequireMinRole 要求最小角色，不满足则返回 403.
func RequireMinRole(minRole Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) < minRole {
			abort(c, http.StatusForbidden, CodeForbidden, "forbidden: insufficient role")
			return
		}

		c.Next()
	}
}
