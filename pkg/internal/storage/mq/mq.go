// Package mq 在 watermill 之上封装发布与订阅，按配置选择 gochannel、NATS 或 Redis Streams.
// 发布时把追踪上下文写入消息元数据，消费端用 queue.ExtractTrace 接续链路.
package mq

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeisme/filevault/pkg/configs"
	nlog "github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/queue"
)

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var factories = map[configs.MQType]Factory{}

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	closeOnce  sync.Once
	closeErr   error
}

// errNotInitialized 客户端为空或缺少对应一侧.
var errNotInitialized = errors.New("mq client not initialized")

// Publish 发布消息. 未设置上下文的消息使用 ctx，并写入追踪元数据.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return fmt.Errorf("publish %s: %w", topic, errNotInitialized)
	}

	for _, m := range msgs {
		if m.Context() == context.Background() {
			m.SetContext(ctx)
		}

		queue.InjectTrace(ctx, m)
	}

	if err := c.publisher.Publish(topic, msgs...); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	return nil
}

// Subscribe 订阅主题，ctx 取消后通道关闭.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, errNotInitialized)
	}

	ch, err := c.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	return ch, nil
}

// Close 关闭资源, 可重复调用.
// gochannel 下 Publisher 与 Subscriber 为同一实例, 只关闭一次.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		var errList []error

		if c.publisher != nil {
			errList = append(errList, c.publisher.Close())
		}

		if c.subscriber != nil && any(c.subscriber) != any(c.publisher) {
			errList = append(errList, c.subscriber.Close())
		}

		c.closeErr = errors.Join(errList...)
	})

	return c.closeErr
}

// HealthTopic 健康检查探针使用的主题, 没有订阅者.
const HealthTopic = "fv.health.ping"

// GetRegisteredMQTypes 返回已注册的 MQ 类型(排序后).
func GetRegisteredMQTypes() []configs.MQType {
	types := slices.Collect(maps.Keys(factories))
	slices.Sort(types)

	return types
}

// NewWithPubSub 使用现成的 Publisher/Subscriber 构造客户端, 主要用于测试.
func NewWithPubSub(pub message.Publisher, sub message.Subscriber) *Client {
	return &Client{publisher: pub, subscriber: sub}
}

// New 根据配置初始化消息队列客户端.
// reg 非空时使用 watermill 的 prometheus 指标装饰 Publisher 与 Subscriber.
func New(ctx context.Context, cfg *configs.MQConfig, reg prometheus.Registerer) (*Client, error) {
	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	logger := NewLoggerAdapter(nlog.Logger())

	pub, sub, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	if reg != nil {
		metricsBuilder := metrics.NewPrometheusMetricsBuilder(reg, "filevault", "mq")

		pub, err = metricsBuilder.DecoratePublisher(pub)
		if err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		sub, err = metricsBuilder.DecorateSubscriber(sub)
		if err != nil {
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}
	}

	nlog.Logger().Info().Str("type", string(cfg.Type)).Bool("metrics", reg != nil).Msg("mq client ready")

	return &Client{publisher: pub, subscriber: sub}, nil
}

// HealthCheck 向探针主题发布一条消息验证 Publisher 可用.
func (c *Client) HealthCheck(ctx context.Context) error {
	msg := message.NewMessage(watermill.NewUUID(), []byte("ping"))
	msg.SetContext(ctx)

	return c.Publish(ctx, HealthTopic, msg)
}
