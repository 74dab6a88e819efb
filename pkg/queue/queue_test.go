package queue

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TestPreviewRequestedEnvelope 测试信封头部与元数据.
func TestPreviewRequestedEnvelope(t *testing.T) {
	msg, err := NewPreviewRequested(PreviewRequestedPayload{
		FileID:   "f1",
		Owner:    "alice@example.com",
		MimeType: "image/png",
	}, WithProducer("filevault"), WithTraceID("trace-1"))
	if err != nil {
		t.Fatalf("NewPreviewRequested: %v", err)
	}

	if msg.UUID == "" {
		t.Error("message uuid should be set")
	}

	if got := msg.Metadata.Get("topic"); got != TopicPreviewRequested {
		t.Errorf("metadata topic = %q", got)
	}

	if got := msg.Metadata.Get("trace_id"); got != "trace-1" {
		t.Errorf("metadata trace_id = %q", got)
	}

	env, err := ParsePreviewRequested(msg)
	if err != nil {
		t.Fatalf("ParsePreviewRequested: %v", err)
	}

	if env.Header.Topic != TopicPreviewRequested || env.Header.Version != PayloadVersionV1 {
		t.Errorf("unexpected header: %+v", env.Header)
	}

	if env.Header.Producer != "filevault" {
		t.Errorf("producer = %q", env.Header.Producer)
	}

	if env.Payload.FileID != "f1" || env.Payload.MimeType != "image/png" {
		t.Errorf("unexpected payload: %+v", env.Payload)
	}

	if env.Header.OccurredAt.Location().String() != "UTC" {
		t.Errorf("occurred_at should be UTC, got %s", env.Header.OccurredAt.Location())
	}
}

// TestDecodeInvalid 测试非法负载.
func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode[PreviewRequestedPayload]([]byte("{not json")); err == nil {
		t.Error("expected decode error")
	}
}

// TestDecodeVersion 测试主版本校验.
func TestDecodeVersion(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"v1", `{"header":{"topic":"t","version":"v1"},"payload":{"file_id":"a"}}`, false},
		{"minor", `{"header":{"topic":"t","version":"v1.3"},"payload":{"file_id":"a"}}`, false},
		{"missing", `{"header":{"topic":"t"},"payload":{"file_id":"a"}}`, false},
		{"v2", `{"header":{"topic":"t","version":"v2"},"payload":{"file_id":"a"}}`, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode[PreviewRequestedPayload]([]byte(tc.raw))
			if tc.wantErr != errors.Is(err, ErrUnsupportedVersion) {
				t.Errorf("err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

// TestWithSpan 测试从上下文中的 span 取 TraceID.
func TestWithSpan(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "upload")
	defer span.End()

	msg, err := NewFilePurged(FilePurgedPayload{FileID: "f1"}, WithSpan(ctx))
	if err != nil {
		t.Fatalf("NewFilePurged: %v", err)
	}

	if got, want := msg.Metadata.Get("trace_id"), span.SpanContext().TraceID().String(); got != want {
		t.Errorf("trace_id = %q, want %q", got, want)
	}

	msg, err = NewFilePurged(FilePurgedPayload{FileID: "f1"}, WithSpan(context.Background()))
	if err != nil {
		t.Fatalf("NewFilePurged: %v", err)
	}

	if got := msg.Metadata.Get("trace_id"); got != "" {
		t.Errorf("trace_id without span = %q", got)
	}
}

// TestTracePropagation 测试追踪上下文经消息元数据传递.
func TestTracePropagation(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "upload")
	defer span.End()

	msg, err := NewPreviewRequested(PreviewRequestedPayload{FileID: "f1"})
	if err != nil {
		t.Fatalf("NewPreviewRequested: %v", err)
	}

	InjectTrace(ctx, msg)

	if msg.Metadata.Get("traceparent") == "" {
		t.Fatalf("traceparent missing: %v", msg.Metadata)
	}

	got := trace.SpanContextFromContext(ExtractTrace(context.Background(), msg))
	if !got.IsRemote() || got.TraceID() != span.SpanContext().TraceID() {
		t.Errorf("extracted span context = %+v", got)
	}
}
