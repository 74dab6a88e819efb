package middleware

import (
	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/storage"
	"github.com/yeisme/filevault/pkg/scheduler"
)

const ginSchedulerKey = "scheduler"

// InjectMiddleware 向请求注入运行期依赖：存储管理器进入 request.Context 供健康检查读取，
// 调度器进入 gin.Context. 为 nil 的依赖不注入，处理器据此返回 503.
func InjectMiddleware(mgr *storage.Manager, sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if mgr != nil {
			c.Request = c.Request.WithContext(ctxPkg.WithStorageManager(c.Request.Context(), mgr))
		}

		if sched != nil {
			c.Set(ginSchedulerKey, sched)
		}

		c.Next()
	}
}

// GetScheduler 返回注入的调度器，未注入时为 nil.
func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	v, _ := c.Get(ginSchedulerKey)
	s, _ := v.(*scheduler.Scheduler)

	return s
}
