package configs

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeNATS      MQType = "nats"
	MQTypeRedis     MQType = "redis"
	MQTypeGoChannel MQType = "gochannel" // 进程内 pub/sub，单实例部署与测试使用
)

// MQConfig 预览任务与文件事件使用的消息队列.
type MQConfig struct {
	Type      MQType            `mapstructure:"type"      rule:"oneof=nats redis gochannel"`
	NATS      MQNATSConfig      `mapstructure:"nats"`
	Redis     MQRedisConfig     `mapstructure:"redis"`
	GoChannel MQGoChannelConfig `mapstructure:"gochannel"`
}

// MQGoChannelConfig 进程内 MQ 配置.
type MQGoChannelConfig struct {
	Buffer int64 `mapstructure:"buffer" rule:"min=0"` // 每个订阅者的输出缓冲
}

// MQNATSConfig NATS 连接与 JetStream 配置.
type MQNATSConfig struct {
	URL           string        `mapstructure:"url"`
	ClusterURLs   []string      `mapstructure:"cluster_urls"` // 非空时优先于 url
	ClientName    string        `mapstructure:"client_name"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	JWT           string        `mapstructure:"jwt"`
	NKeySeed      string        `mapstructure:"nkey_seed"`
	MaxReconnects int           `mapstructure:"max_reconnects"  rule:"gte=-1"` // -1 表示无限重连
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	PingInterval  time.Duration `mapstructure:"ping_interval"`
	ReconnectBuf  int           `mapstructure:"reconnect_buf"   rule:"gte=0"`

	// QueueGroup 非空时同组订阅者分摊消息，多实例部署时每条预览任务只被处理一次
	QueueGroup  string        `mapstructure:"queue_group"`
	Subscribers int           `mapstructure:"subscribers"     rule:"min=1,max=64"`
	AckWait     time.Duration `mapstructure:"ack_wait"`

	JetStream MQJetStreamConfig `mapstructure:"jetstream"`
}

// MQJetStreamConfig JetStream 持久化投递配置.
type MQJetStreamConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	AutoProvision bool   `mapstructure:"auto_provision"`
	TrackMsgID    bool   `mapstructure:"track_msg_id"`
	AckAsync      bool   `mapstructure:"ack_async"`
	DurablePrefix string `mapstructure:"durable_prefix"`
}

// MQRedisConfig Redis pub/sub 配置.
type MQRedisConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// Servers 返回 NATS 连接地址，多个地址以逗号分隔.
func (c *MQNATSConfig) Servers() string {
	if len(c.ClusterURLs) > 0 {
		return strings.Join(c.ClusterURLs, ",")
	}

	return c.URL
}

func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeGoChannel)
	v.SetDefault("mq.gochannel.buffer", 256)

	v.SetDefault("mq.nats.url", "nats://localhost:4222")
	v.SetDefault("mq.nats.client_name", "filevault")
	v.SetDefault("mq.nats.max_reconnects", -1)
	v.SetDefault("mq.nats.reconnect_wait", 2*time.Second)
	v.SetDefault("mq.nats.ping_interval", 20*time.Second)
	v.SetDefault("mq.nats.reconnect_buf", 8<<20)
	v.SetDefault("mq.nats.queue_group", "filevault")
	v.SetDefault("mq.nats.subscribers", 1)
	v.SetDefault("mq.nats.ack_wait", 30*time.Second)
	v.SetDefault("mq.nats.jetstream.enabled", false)
	v.SetDefault("mq.nats.jetstream.auto_provision", true)
	v.SetDefault("mq.nats.jetstream.track_msg_id", true)
	v.SetDefault("mq.nats.jetstream.ack_async", false)
	v.SetDefault("mq.nats.jetstream.durable_prefix", "filevault")

	v.SetDefault("mq.redis.addr", "localhost:6379")
	v.SetDefault("mq.redis.password", "")
	v.SetDefault("mq.redis.db", 0)
}
