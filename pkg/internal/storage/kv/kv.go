// Package kv 提供键值存储接口与 memory、redis、nats、groupcache 实现，业务侧通过 pkg/cache 使用.
package kv

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"
	"time"

	"github.com/yeisme/filevault/pkg/configs"
)

// ErrNotFound 键不存在或已过期.
var ErrNotFound = errors.New("key not found")

// Client 包装当前配置的 KVStore.
type Client struct {
	KVStore

	Type configs.KVType
}

// KVStore 定义键值存储接口.
type KVStore interface {
	// Get 获取键的值，不存在时返回包装了 ErrNotFound 的错误.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 设置键的值，ttl <= 0 表示不过期.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete 删除键.
	Delete(ctx context.Context, key string) error
	// Exists 检查键是否存在.
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 按 glob 模式列出键，空模式表示全部.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// Close 关闭存储连接.
	Close() error
}

// KVFactory 定义创建 KVStore 的工厂函数类型.
type KVFactory func(ctx context.Context, cfg *configs.KVConfig) (KVStore, error)

var kvFactories = make(map[configs.KVType]KVFactory)

// RegisterKVFactory 注册 KV 工厂函数.
func RegisterKVFactory(kvType configs.KVType, factory KVFactory) {
	kvFactories[kvType] = factory
}

// GetRegisteredKVTypes 返回已注册的 KV 类型列表.
func GetRegisteredKVTypes() []configs.KVType {
	types := slices.Collect(maps.Keys(kvFactories))
	slices.Sort(types)

	return types
}

// NewKVStore 根据类型创建 KVStore 实例.
func NewKVStore(ctx context.Context, cfg *configs.KVConfig) (KVStore, error) {
	factory, exists := kvFactories[cfg.Type]
	if !exists {
		return nil, fmt.Errorf("unsupported KV type: %s", cfg.Type)
	}

	return factory(ctx, cfg)
}

// NewKVClient 按配置创建 KV 客户端.
func NewKVClient(ctx context.Context, cfg *configs.KVConfig) (*Client, error) {
	store, err := NewKVStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Client{KVStore: store, Type: cfg.Type}, nil
}

// HealthCheck 优先使用后端自带的检查，否则通过一次读操作检查连通性.
func (c *Client) HealthCheck(ctx context.Context) error {
	if hc, ok := c.KVStore.(interface{ HealthCheck(context.Context) error }); ok {
		return hc.HealthCheck(ctx)
	}

	_, err := c.Exists(ctx, "filevault:health")

	return err
}

func notFound(key string) error {
	return fmt.Errorf("%s: %w", key, ErrNotFound)
}

// matchKey 使用 glob 模式匹配键.
func matchKey(pattern, key string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	ok, err := path.Match(pattern, key)

	return err == nil && ok
}
