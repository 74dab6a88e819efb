package handle

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/errs"
	"github.com/yeisme/filevault/pkg/internal/storage"
)

const healthTimeout = 2 * time.Second

// healthComponents 可检查的组件.
var healthComponents = []storage.Component{
	storage.ComponentDB,
	storage.ComponentBlob,
	storage.ComponentS3,
	storage.ComponentKV,
	storage.ComponentMQ,
}

// HealthComponent 单个组件健康检查.
//
//	@Summary		组件健康检查
//	@Tags			健康检查
//	@Produce		json
//	@Param			component	path		string	true	"db | blob | s3 | kv | mq"
//	@Success		200			{object}	map[string]string
//	@Failure		503			{object}	map[string]string
//	@Router			/api/v1/health/{component} [get]
func HealthComponent(c *gin.Context) {
	comp := storage.Component(c.Param("component"))
	if !slices.Contains(healthComponents, comp) {
		c.JSON(http.StatusNotFound, errs.ToBody(errs.NotFound("unknown component %q", comp)))
		return
	}

	if err := checkComponent(c.Request.Context(), comp); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": comp, "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": comp, "status": "ok"})
}

// Health 并发检查全部组件. 未配置的组件（如使用本地存储时的 s3）不计入结果.
//
//	@Summary		健康检查
//	@Tags			健康检查
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		503	{object}	map[string]any
//	@Router			/api/v1/health [get]
func Health(c *gin.Context) {
	ctx := c.Request.Context()
	errList := make([]error, len(healthComponents))

	var g errgroup.Group
	for i, comp := range healthComponents {
		g.Go(func() error {
			errList[i] = checkComponent(ctx, comp)
			return nil
		})
	}

	_ = g.Wait()

	status := http.StatusOK
	result := gin.H{}

	for i, comp := range healthComponents {
		switch err := errList[i]; {
		case err == nil:
			result[string(comp)] = "ok"
		case errors.Is(err, storage.ErrNotConfigured) && ctxPkg.GetManager(ctx) != nil:
			continue
		default:
			result[string(comp)] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, gin.H{"status": http.StatusText(status), "components": result})
}

func checkComponent(ctx context.Context, comp storage.Component) error {
	mgr := ctxPkg.GetManager(ctx)
	if mgr == nil {
		return storage.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	return mgr.HealthCheck(ctx, comp)
}
