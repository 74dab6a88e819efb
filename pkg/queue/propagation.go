package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// InjectTrace 按全局 propagator 把 ctx 的追踪上下文写入消息元数据.
func InjectTrace(ctx context.Context, msg *message.Message) {
	if msg.Metadata == nil {
		msg.Metadata = message.Metadata{}
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Metadata))
}

// ExtractTrace 从消息元数据恢复追踪上下文并挂到 parent 上，消费端的 span 由此接续生产端的链路.
func ExtractTrace(parent context.Context, msg *message.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(parent, propagation.MapCarrier(msg.Metadata))
}
