package configs

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// KVType 键值存储类型.
type KVType string

const (
	KVTypeMemory     KVType = "memory"
	KVTypeRedis      KVType = "redis"
	KVTypeNATS       KVType = "nats"
	KVTypeGroupcache KVType = "groupcache"
)

// KVConfig 缓存使用的键值存储. memory 与 groupcache 只在进程内，多实例部署应使用 redis 或 nats.
type KVConfig struct {
	Type       KVType             `mapstructure:"type"       rule:"oneof=memory redis nats groupcache"`
	Redis      RedisKVConfig      `mapstructure:"redis"`
	NATS       NATSKVConfig       `mapstructure:"nats"`
	Groupcache GroupcacheKVConfig `mapstructure:"groupcache"`
}

// RedisKVConfig Redis KV 配置.
type RedisKVConfig struct {
	Addr         string        `mapstructure:"addr"          rule:"hostname_port"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"            rule:"min=0,max=15"`
	PoolSize     int           `mapstructure:"pool_size"     rule:"min=0"` // 0 使用 go-redis 默认值
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	TLS          bool          `mapstructure:"tls"`
}

// NATSKVConfig JetStream KV 配置，bucket 不存在时按这里的参数创建.
type NATSKVConfig struct {
	URL      string        `mapstructure:"url"       rule:"required"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Bucket   string        `mapstructure:"bucket"    rule:"required"`
	Storage  string        `mapstructure:"storage"   rule:"oneof=file memory"`
	Replicas int           `mapstructure:"replicas"  rule:"min=1,max=5"`
	MaxBytes int64         `mapstructure:"max_bytes"` // -1 不限制
	MaxAge   time.Duration `mapstructure:"max_age"`   // 条目的最长保留时间，0 不限制
}

// GroupcacheKVConfig groupcache 配置. peers 为包含自身在内的全部节点地址.
type GroupcacheKVConfig struct {
	Name       string   `mapstructure:"name"        rule:"required"`
	CacheBytes int64    `mapstructure:"cache_bytes" rule:"min=1048576"`
	Peers      []string `mapstructure:"peers"       rule:"dive,url"`
	Self       string   `mapstructure:"self"        rule:"omitempty,url"` // 配置了 peers 时必填
}

// check 校验 tag 无法表达的约束. 空的 peers 列表视为未配置.
func (c *GroupcacheKVConfig) check() error {
	if len(c.Peers) > 0 && c.Self == "" {
		return errors.New("kv.groupcache.self is required when peers are set")
	}

	return nil
}

func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", KVTypeMemory)

	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.db", 0)
	v.SetDefault("kv.redis.pool_size", 0)
	v.SetDefault("kv.redis.dial_timeout", 5*time.Second)
	v.SetDefault("kv.redis.read_timeout", 3*time.Second)
	v.SetDefault("kv.redis.write_timeout", 3*time.Second)

	v.SetDefault("kv.nats.url", "nats://localhost:4222")
	v.SetDefault("kv.nats.bucket", "filevault-kv")
	v.SetDefault("kv.nats.storage", "file")
	v.SetDefault("kv.nats.replicas", 1)
	v.SetDefault("kv.nats.max_bytes", -1)
	v.SetDefault("kv.nats.max_age", 24*time.Hour)

	v.SetDefault("kv.groupcache.name", "filevault-cache")
	v.SetDefault("kv.groupcache.cache_bytes", 64<<20)
}
