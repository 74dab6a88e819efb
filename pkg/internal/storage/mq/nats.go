package mq

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/yeisme/filevault/pkg/configs"
)

const (
	natsDrainTimeout = 30 * time.Second
	natsCloseTimeout = 10 * time.Second
)

func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

// natsConnOptions 连接选项，publisher 与 subscriber 各自建立连接.
func natsConnOptions(cfg *configs.MQNATSConfig) []nc.Option {
	opts := []nc.Option{
		nc.Name(cfg.ClientName),
		nc.MaxReconnects(cfg.MaxReconnects),
		nc.ReconnectWait(cfg.ReconnectWait),
		nc.PingInterval(cfg.PingInterval),
		nc.ReconnectBufSize(cfg.ReconnectBuf),
		nc.DrainTimeout(natsDrainTimeout),
		nc.RetryOnFailedConnect(true),
	}

	switch {
	case cfg.JWT != "":
		opts = append(opts, nc.UserJWTAndSeed(cfg.JWT, cfg.NKeySeed))
	case cfg.User != "":
		opts = append(opts, nc.UserInfo(cfg.User, cfg.Password))
	}

	return opts
}

func jetStreamConfig(cfg configs.MQJetStreamConfig) wmnats.JetStreamConfig {
	if !cfg.Enabled {
		return wmnats.JetStreamConfig{Disabled: true}
	}

	return wmnats.JetStreamConfig{
		AutoProvision: cfg.AutoProvision,
		TrackMsgId:    cfg.TrackMsgID,
		AckAsync:      cfg.AckAsync,
		DurablePrefix: cfg.DurablePrefix,
	}
}

// natsFactory 创建 NATS publisher 与 subscriber. 配置 queue_group 时订阅使用队列组，多实例间分摊消息.
func natsFactory(
	_ context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter,
) (message.Publisher, message.Subscriber, error) {
	n := &cfg.NATS
	opts := natsConnOptions(n)
	js := jetStreamConfig(n.JetStream)
	marshaler := &wmnats.JSONMarshaler{}

	pub, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         n.Servers(),
		NatsOptions: opts,
		Marshaler:   marshaler,
		JetStream:   js,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	sub, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:              n.Servers(),
		NatsOptions:      opts,
		Unmarshaler:      marshaler,
		JetStream:        js,
		QueueGroupPrefix: n.QueueGroup,
		SubscribersCount: max(n.Subscribers, 1),
		AckWaitTimeout:   n.AckWait,
		CloseTimeout:     natsCloseTimeout,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, err
	}

	logger.Debug("nats connected", watermill.LogFields{
		"servers":     n.Servers(),
		"jetstream":   n.JetStream.Enabled,
		"queue_group": n.QueueGroup,
	})

	return pub, sub, nil
}
