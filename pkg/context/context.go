// Package context 定义请求链路上传递的值：当前用户、存储管理器，以及据此派生带追踪字段的日志器.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/filevault/pkg/internal/storage"
)

type (
	userKey    struct{}
	managerKey struct{}
)

// WithUser 记录已认证的用户.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// User 返回已认证的用户，未认证时为空.
func User(ctx context.Context) string {
	u, _ := ctx.Value(userKey{}).(string)
	return u
}

// WithStorageManager 注入存储管理器.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, managerKey{}, mgr)
}

// GetManager 返回注入的存储管理器，没有时为 nil.
func GetManager(ctx context.Context) *storage.Manager {
	mgr, _ := ctx.Value(managerKey{}).(*storage.Manager)
	return mgr
}

// Logger 在 base 上附加 trace_id、span_id 与 user，缺失的字段不写.
func Logger(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	user := User(ctx)

	if !sc.IsValid() && user == "" {
		return base
	}

	lc := base.With()
	if sc.IsValid() {
		lc = lc.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
	}

	if user != "" {
		lc = lc.Str("user", user)
	}

	return lc.Logger()
}
