// Package queue 定义文件服务的异步事件，经由 internal/storage/mq 发布与订阅.
//
// 概览
//   - 上传成功后发布 fv.preview.requested，预览工作池消费并生成缩略图
//   - 统一的消息封装：Message[Payload] = Header + Payload
//   - 主题常量见 topics.go，负载结构体见 payloads.go
//   - JSON 编解码使用 bytedance/sonic
//
// 消息信封（Envelope）JSON 结构
//
//	{
//	  "header": {
//	    "topic": "fv.preview.requested",
//	    "producer": "filevault",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": {"file_id": "...", "owner": "...", "mime_type": "image/png"}
//	}
//
// 发布/订阅示例
//
//	msg, _ := queue.NewPreviewRequested(queue.PreviewRequestedPayload{
//	  FileID: f.ID, Owner: f.Owner, MimeType: f.MimeType,
//	}, queue.WithProducer("upload"), queue.WithSpan(ctx))
//	_ = client.Publish(ctx, queue.TopicPreviewRequested, msg)
//
//	ch, _ := client.Subscribe(ctx, queue.TopicPreviewRequested)
//	for m := range ch {
//	  env, _ := queue.ParsePreviewRequested(m)
//	  // 使用 env.Payload ...
//	  m.Ack()
//	}
//
// 注意事项
//  1. occurred_at 为 UTC
//  2. 消费者应忽略未知字段
//  3. 预览消息可能重复投递，消费端幂等
//  4. 版本号主版本不同的消息解析时返回 ErrUnsupportedVersion
package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/trace"
)

const PayloadVersionV1 = "v1"

// ErrUnsupportedVersion 消息主版本与当前实现不兼容.
var ErrUnsupportedVersion = errors.New("queue: unsupported payload version")

// Option 修改事件头.
type Option func(*EventHeader)

// WithTraceID 设置 TraceID.
func WithTraceID(id string) Option { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) Option { return func(h *EventHeader) { h.Producer = p } }

// WithSpan 从 ctx 中的 span 取 TraceID，没有有效 span 时不做修改.
func WithSpan(ctx context.Context) Option {
	return func(h *EventHeader) {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			h.TraceID = sc.TraceID().String()
		}
	}
}

func newHeader(topic string, opts []Option) EventHeader {
	h := EventHeader{Topic: topic, OccurredAt: time.Now().UTC(), Version: PayloadVersionV1}
	for _, opt := range opts {
		opt(&h)
	}

	return h
}

// Encode 编码消息.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 解码消息并校验主版本，缺省版本视为 v1.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]
	if err := sonic.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("queue: decode: %w", err)
	}

	if v := m.Header.Version; v != "" && majorOf(v) != majorOf(PayloadVersionV1) {
		return m, fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}

	return m, nil
}

// majorOf 取 "v1.2" 形式版本号的主版本部分.
func majorOf(v string) string {
	major, _, _ := strings.Cut(v, ".")
	return major
}

// NewWatermillMessage 把负载封装为信封，头部字段同时写入 watermill 元数据以便不解码也能路由与排查.
func NewWatermillMessage[T any](topic string, payload T, opts ...Option) (*message.Message, error) {
	h := newHeader(topic, opts)

	data, err := Encode(Message[T]{Header: h, Payload: payload})
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)

	for k, v := range map[string]string{
		"topic":       topic,
		"trace_id":    h.TraceID,
		"producer":    h.Producer,
		"version":     h.Version,
		"occurred_at": h.OccurredAt.Format(time.RFC3339Nano),
	} {
		if v != "" {
			msg.Metadata.Set(k, v)
		}
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}
