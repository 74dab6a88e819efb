// Package router 管理路由配置，将中间件与处理器绑定到 gin 引擎.
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/filevault/pkg/cache"
	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/errs"
	"github.com/yeisme/filevault/pkg/internal/handle"
	"github.com/yeisme/filevault/pkg/internal/storage"
	"github.com/yeisme/filevault/pkg/internal/storage/kv"
	"github.com/yeisme/filevault/pkg/internal/types"
	"github.com/yeisme/filevault/pkg/middleware"
	"github.com/yeisme/filevault/pkg/scheduler"
)

const statsCacheTTL = 5 * time.Second

// Deps 路由依赖. Manager、Scheduler 与 Cache 可以为空.
type Deps struct {
	Handlers  *handle.Handlers
	Config    *configs.AppConfig
	Manager   *storage.Manager
	Scheduler *scheduler.Scheduler
	Cache     *appcache.Cache
}

// New 创建 gin 引擎并注册全部中间件与路由:
//
//	/api/v1/...    业务接口，需要认证
//	/p/:token/     公开分享下载
//	/swagger/*any  接口文档（仅 debug）
//	/_groupcache/  groupcache 节点间取数（配置了 peers 时）
func New(d Deps) *gin.Engine {
	cfg := d.Config

	e := gin.New()
	e.MaxMultipartMemory = cfg.Server.MaxMultipartMemory()

	e.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(cfg.Server, cfg.Auth),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.GzipMiddleware(),
		middleware.RateLimitMiddleware(cfg.RateLimit),
		middleware.CircuitBreakerMiddleware(cfg.CircuitBreaker),
		middleware.InjectMiddleware(d.Manager, d.Scheduler),
		middleware.AuthMiddleware(cfg.Auth),
		middleware.RoleMiddleware(cfg.Auth),
	)

	e.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errs.ToBody(errs.NotFound("route %s not found", c.Request.URL.Path)))
	})

	if h := groupcachePeers(d.Manager); h != nil {
		e.Any(kv.PeerPath+"*key", gin.WrapH(h))
	}

	RegisterSwaggerRoute(e, cfg)

	// 公开分享下载，身份校验由 auth.skip_paths 放行
	e.GET("/p/:token/", d.Handlers.PublicDownload)

	api := e.Group(types.APIPrefix)
	RegisterHealthCheckRoute(api)
	RegisterFilesRoutes(api, d.Handlers)
	RegisterFoldersRoutes(api, d.Handlers)
	RegisterTrashRoutes(api, d.Handlers)
	RegisterStatsRoutes(api, d.Handlers, d.Cache)
	RegisterSchedulerRoutes(api)

	return e
}

// groupcachePeers 返回 groupcache 节点间的处理器，KV 不是 groupcache 或未配置 peers 时为 nil.
func groupcachePeers(m *storage.Manager) http.Handler {
	if m == nil || m.GetKVClient() == nil {
		return nil
	}

	p, ok := m.GetKVClient().KVStore.(interface{ PeerHandler() http.Handler })
	if !ok {
		return nil
	}

	return p.PeerHandler()
}
