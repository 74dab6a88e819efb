package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/filevault/pkg/tracing"
)

// TracingMiddleware 为每个请求创建服务端 span，并沿用上游 traceparent.
// span 名称使用路由模板，匹配失败时为 "METHOD unmatched".
func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		parent := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		ctx, span := tracing.StartSpan(parent, c.Request.Method+" "+routeOf(c),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.target", c.Request.URL.Path),
				attribute.String("http.host", c.Request.Host),
				attribute.String("http.user_agent", c.Request.UserAgent()),
				attribute.String("net.peer.ip", c.ClientIP()),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.String("http.route", routeOf(c)),
		)

		if user := GetUser(c); user != "" {
			span.SetAttributes(attribute.String("enduser.id", user))
		}

		switch {
		case status >= http.StatusInternalServerError:
			span.SetStatus(codes.Error, http.StatusText(status))
		case len(c.Errors) > 0:
			span.SetStatus(codes.Unset, c.Errors.String())
		default:
			span.SetStatus(codes.Ok, "")
		}
	}
}

// routeOf 返回路由模板，未匹配时为 unmatched，避免把 ID 与令牌写进标签.
func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}

	return "unmatched"
}
