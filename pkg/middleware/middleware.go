// Package middleware 提供 gin 中间件：认证、限流、熔断、缓存、日志、追踪与指标.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/errs"
)

// 中间件自身产生的错误码，与业务错误共用 {"error": {"code", "message"}} 响应体.
const (
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeRateLimited        = "RATE_LIMITED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// abort 中断请求并写入统一格式的错误.
func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errs.Body{Error: errs.Detail{Code: code, Message: message}})
}
