// Package handle 提供 HTTP 请求处理器，负责参数解析、调用 service 与渲染响应.
package handle

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/filevault/pkg/configs"
	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/errs"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/middleware"
	"github.com/yeisme/filevault/pkg/rule"
)

// Handlers 业务处理器集合.
type Handlers struct {
	svc    *service.Services
	cfg    *configs.AppConfig
	logger zerolog.Logger
}

// New 创建处理器. 同时初始化 rule 校验引擎，使 gin 绑定使用 rule 标签.
func New(svc *service.Services, cfg *configs.AppConfig) *Handlers {
	if cfg == nil {
		cfg = configs.GetConfig()
	}

	rule.Engine()

	return &Handlers{svc: svc, cfg: cfg, logger: log.Component("handle")}
}

// currentUser 返回认证中间件识别出的用户，缺失时写入 401.
func currentUser(c *gin.Context) (string, bool) {
	user := middleware.GetUser(c)
	if user == "" {
		c.JSON(http.StatusUnauthorized, errs.Body{Error: errs.Detail{
			Code:    middleware.CodeUnauthorized,
			Message: "unauthorized",
		}})

		return "", false
	}

	return user, true
}

// writeError 将错误映射为状态码与统一响应体. 内部错误只记录日志，不暴露细节.
func (h *Handlers) writeError(c *gin.Context, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		l := ctxPkg.Logger(c.Request.Context(), h.logger)
		l.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}

	_ = c.Error(err)
	c.JSON(status, errs.ToBody(err))
}

// bindJSON 解析 JSON 请求体，空请求体视为零值.
func bindJSON(c *gin.Context, obj any) error {
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
			return errs.Validation("invalid request body: %v", err)
		}
	}

	if err := rule.ValidateStruct(obj); err != nil {
		return errs.Validation("invalid request body: %s", rule.Describe(err))
	}

	return nil
}
