// Package cache 提供基于键值存储的泛型缓存实现.
//
// 值使用 sonic 序列化为 JSON 后写入 KV, 所有键自动加上命名空间前缀.
// 分享链接查询与统计接口通过该包缓存数据库结果.
//
// 基本用法:
//
//	c := cache.NewCache(kvClient, "fv:share:")
//
//	// 写入
//	err := cache.Set(ctx, c, token, entry, 30*time.Second)
//
//	// 读取, 未命中时 cache.IsMiss(err) 为 true
//	entry, err := cache.Get[ShareEntry](ctx, c, token)
//
//	// 读穿
//	entry, err := cache.GetOrSet(ctx, c, token, func() (ShareEntry, error) {
//	    return loadFromDB(token)
//	}, 30*time.Second)
//
// 缓存只是加速手段: nil *Cache 或底层不可用时 GetOrSet 直接回源, 写入失败不影响返回值.
// 同一实例上并发的同键未命中只会触发一次回源.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/filevault/pkg/internal/storage/kv"
)

// Cache 带命名空间前缀的 KV 缓存.
type Cache struct {
	store  kv.KVStore
	prefix string
	loads  singleflight.Group
}

// NewCache 创建缓存，prefix 为键的命名空间.
func NewCache(store kv.KVStore, prefix string) *Cache {
	return &Cache{store: store, prefix: prefix}
}

// IsMiss 判断错误是否为缓存未命中.
func IsMiss(err error) bool {
	return errors.Is(err, kv.ErrNotFound)
}

func (c *Cache) key(k string) string { return c.prefix + k }

// Get 读取并解码缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var value T

	data, err := c.store.Get(ctx, c.key(key))
	if err != nil {
		return value, err
	}

	if err := sonic.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("cache: decode %s: %w", key, err)
	}

	return value, nil
}

// Set 编码并写入缓存值，ttl <= 0 表示不过期.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}

	return c.store.Set(ctx, c.key(key), data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, c.key(key))
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.store.Exists(ctx, c.key(key))
}

// GetOrSet 读穿缓存：命中直接返回，否则调用 load 并写回.
// 读取或解码失败都按未命中处理.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, load func() (T, error), ttl time.Duration) (T, error) {
	if c == nil || c.store == nil {
		return load()
	}

	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	v, err, _ := c.loads.Do(key, func() (any, error) {
		value, err := load()
		if err != nil {
			return value, err
		}

		_ = Set(ctx, c, key, value, ttl)

		return value, nil
	})

	value, _ := v.(T)

	return value, err
}

// Clear 删除当前命名空间下的全部键，单个键删除失败不会中断.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.store.Keys(ctx, c.prefix+"*")
	if err != nil {
		return err
	}

	var errList []error

	for _, key := range keys {
		if err := c.store.Delete(ctx, key); err != nil {
			errList = append(errList, err)
		}
	}

	return errors.Join(errList...)
}
