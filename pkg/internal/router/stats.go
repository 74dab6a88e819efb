package router

import (
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/filevault/pkg/cache"
	"github.com/yeisme/filevault/pkg/internal/handle"
	"github.com/yeisme/filevault/pkg/middleware"
)

// RegisterStatsRoutes 注册统计相关路由. 提供 Cache 时统计结果按用户短暂缓存.
func RegisterStatsRoutes(g *gin.RouterGroup, h *handle.Handlers, c *appcache.Cache) {
	statsRoutes := g.Group("/stats")
	if c != nil {
		cc := middleware.DefaultCacheConfig(c)
		cc.TTL = statsCacheTTL
		statsRoutes.Use(middleware.CacheMiddleware(cc))
	}

	{
		statsRoutes.GET("/types", h.CountByType)           // 按类型计数
		statsRoutes.GET("/storage", h.TotalStorage)        // 总占用
		statsRoutes.GET("/storage/types", h.StorageByType) // 按类型占用
	}

	g.GET("/quota", h.Quota)
}
