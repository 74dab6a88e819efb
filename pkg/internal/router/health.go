package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/handle"
)

// RegisterHealthCheckRoute 注册健康检查，GET 与 HEAD 都可用于探活.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	health := g.Group("/health")

	for _, route := range []func(string, ...gin.HandlerFunc) gin.IRoutes{health.GET, health.HEAD} {
		route("", handle.Health)
		route("/:component", handle.HealthComponent)
	}
}
