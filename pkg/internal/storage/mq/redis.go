package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/filevault/pkg/configs"
)

const (
	// DefaultChannelBufferSize 默认通道缓冲区大小.
	DefaultChannelBufferSize = 100
)

// ErrSubscriberClosed 订阅者已关闭.
var ErrSubscriberClosed = errors.New("mq: subscriber closed")

// redisFrame Redis pub/sub 上传输的消息帧, 保留 watermill 的 UUID 与元数据.
type redisFrame struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

// RedisPublisher Redis Publisher 实现.
type RedisPublisher struct {
	client *redis.Client
}

// RedisSubscriber Redis Subscriber 实现.
type RedisSubscriber struct {
	client  *redis.Client
	logger  watermill.LoggerAdapter
	subs    []*redis.PubSub
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
}

// init 注册 Redis 工厂.
func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

// redisFactory 创建 Redis Publisher & Subscriber, 两者共享一个客户端, 由 Subscriber 负责关闭.
func redisFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	pub := &RedisPublisher{client: rdb}
	sub := &RedisSubscriber{
		client:  rdb,
		logger:  logger,
		closeCh: make(chan struct{}),
	}

	return pub, sub, nil
}

// Publish 实现 Publisher 接口.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		data, err := sonic.Marshal(redisFrame{
			UUID:     msg.UUID,
			Metadata: msg.Metadata,
			Payload:  msg.Payload,
		})
		if err != nil {
			return fmt.Errorf("encode message %s: %w", msg.UUID, err)
		}

		if err := p.client.Publish(msg.Context(), topic, data).Err(); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
	}

	return nil
}

// Close 实现 Publisher 接口.
func (p *RedisPublisher) Close() error { return nil }

// Subscribe 实现 Subscriber 接口.
// 每条消息在 Ack 之前不会投递下一条, Nack 的消息会重新投递.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSubscriberClosed
	}

	ps := s.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	s.subs = append(s.subs, ps)
	out := make(chan *message.Message, DefaultChannelBufferSize)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer close(out)

		for raw := range ps.Channel() {
			var frame redisFrame
			if err := sonic.UnmarshalString(raw.Payload, &frame); err != nil {
				s.logger.Error("drop malformed redis frame", err, watermill.LogFields{"topic": topic})
				continue
			}

			if !s.deliver(ctx, out, frame) {
				return
			}
		}
	}()

	return out, nil
}

// deliver 投递消息直到被 Ack; 返回 false 表示订阅应当结束.
func (s *RedisSubscriber) deliver(ctx context.Context, out chan<- *message.Message, frame redisFrame) bool {
	for {
		msg := message.NewMessage(frame.UUID, frame.Payload)
		for k, v := range frame.Metadata {
			msg.Metadata.Set(k, v)
		}

		msgCtx, cancel := context.WithCancel(ctx)
		msg.SetContext(msgCtx)

		select {
		case out <- msg:
		case <-s.closeCh:
			cancel()
			return false
		case <-ctx.Done():
			cancel()
			return false
		}

		select {
		case <-msg.Acked():
			cancel()
			return true
		case <-msg.Nacked():
			cancel()
		case <-s.closeCh:
			cancel()
			return false
		case <-ctx.Done():
			cancel()
			return false
		}
	}
}

// Close 实现 Subscriber 接口.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	close(s.closeCh)

	var errList []error

	for _, ps := range s.subs {
		if err := ps.Close(); err != nil {
			errList = append(errList, err)
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	if err := s.client.Close(); err != nil {
		errList = append(errList, err)
	}

	return errors.Join(errList...)
}
