package configs

import "github.com/spf13/viper"

// DefaultUserHeaders oauth2-proxy 及常见网关注入身份的请求头，按优先级排列.
var DefaultUserHeaders = []string{"X-Auth-Request-Email", "X-Forwarded-Email", "X-User"}

// DefaultRoleHeader 网关注入角色的请求头.
const DefaultRoleHeader = "X-Role"

// AuthConfig 控制统一身份认证. 服务本身不处理登录，只信任前置网关注入的请求头.
type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// UserHeaders 依次读取的身份请求头，第一个非空值即为用户.
	UserHeaders []string `mapstructure:"user_headers" rule:"dive,required"`
	// SkipPaths 不要求身份的路径前缀.
	SkipPaths []string `mapstructure:"skip_paths"`

	DevAllowQuery  bool   `mapstructure:"dev_allow_query"`  // 允许 ?user= 便于本地调试
	DevDefaultUser string `mapstructure:"dev_default_user"` // 认证关闭时使用的用户

	Admins          []string `mapstructure:"admins"            rule:"dive,email"`
	TrustRoleHeader bool     `mapstructure:"trust_role_header"`
	RoleHeader      string   `mapstructure:"role_header"`
}

// IdentityHeaders 返回身份请求头，未配置时使用 DefaultUserHeaders.
func (c *AuthConfig) IdentityHeaders() []string {
	if len(c.UserHeaders) == 0 {
		return DefaultUserHeaders
	}

	return c.UserHeaders
}

// RoleHeaderName 返回角色请求头名.
func (c *AuthConfig) RoleHeaderName() string {
	if c.RoleHeader == "" {
		return DefaultRoleHeader
	}

	return c.RoleHeader
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.user_headers", DefaultUserHeaders)
	v.SetDefault("auth.dev_allow_query", false)
	v.SetDefault("auth.dev_default_user", "dev@filevault.local")
	v.SetDefault("auth.admins", []string{})
	v.SetDefault("auth.trust_role_header", true)
	v.SetDefault("auth.role_header", DefaultRoleHeader)
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/api/v1/health",
		"/swagger",
		"/p/",
		"/_groupcache/",
	})
}
