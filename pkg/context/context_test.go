package context_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/storage"
)

// TestStorageManager 测试 Manager 的存取.
func TestStorageManager(t *testing.T) {
	if ctxPkg.GetManager(context.Background()) != nil {
		t.Fatal("empty context should have no manager")
	}

	mgr := &storage.Manager{}
	ctx := ctxPkg.WithStorageManager(context.Background(), mgr)

	if got := ctxPkg.GetManager(ctx); got != mgr {
		t.Errorf("want injected manager, got %p", got)
	}
}

// TestUser 测试用户的存取.
func TestUser(t *testing.T) {
	if u := ctxPkg.User(context.Background()); u != "" {
		t.Errorf("empty context user = %q", u)
	}

	if u := ctxPkg.User(ctxPkg.WithUser(context.Background(), "alice@example.com")); u != "alice@example.com" {
		t.Errorf("user = %q", u)
	}
}

// TestLogger 测试日志按上下文附加 trace_id 与 user.
func TestLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := zerolog.New(&buf)

	plain := ctxPkg.Logger(context.Background(), logger)
	plain.Info().Msg("plain")

	if strings.Contains(buf.String(), "trace_id") || strings.Contains(buf.String(), "user") {
		t.Errorf("bare context: unexpected fields in %s", buf.String())
	}

	buf.Reset()

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	ctx = ctxPkg.WithUser(ctx, "bob@example.com")
	traced := ctxPkg.Logger(ctx, logger)
	traced.Info().Msg("traced")

	out := buf.String()
	if !strings.Contains(out, span.SpanContext().TraceID().String()) {
		t.Errorf("want trace_id in %s", out)
	}

	if !strings.Contains(out, `"user":"bob@example.com"`) {
		t.Errorf("want user in %s", out)
	}
}
