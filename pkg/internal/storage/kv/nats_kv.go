package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/yeisme/filevault/pkg/configs"
)

// NATSKV 基于 JetStream KV bucket 的实现. bucket 级 TTL 只是上限，键级 TTL 由 seal 包装，过期条目在读取时删除.
type NATSKV struct {
	kv   jetstream.KeyValue
	conn *nats.Conn
	now  func() time.Time
}

// NewNATSKV 连接 NATS 并按配置创建或更新 bucket.
func NewNATSKV(ctx context.Context, cfg *configs.KVConfig) (KVStore, error) {
	nc := cfg.NATS

	opts := []nats.Option{nats.Name("filevault-kv"), nats.MaxReconnects(-1)}
	if nc.User != "" {
		opts = append(opts, nats.UserInfo(nc.User, nc.Password))
	}

	conn, err := nats.Connect(nc.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	storage := jetstream.FileStorage
	if nc.Storage == "memory" {
		storage = jetstream.MemoryStorage
	}

	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:   nc.Bucket,
		History:  1,
		TTL:      nc.MaxAge,
		MaxBytes: nc.MaxBytes,
		Storage:  storage,
		Replicas: nc.Replicas,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open KV bucket %q: %w", nc.Bucket, err)
	}

	return &NATSKV{kv: bucket, conn: conn, now: time.Now}, nil
}

// load 读取并拆开条目，过期时删除并返回 ErrNotFound.
func (n *NATSKV) load(ctx context.Context, key string) ([]byte, error) {
	entry, err := n.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, notFound(key)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	val, live, err := unseal(entry.Value(), n.now())
	if err != nil {
		return nil, err
	}

	if !live {
		_ = n.kv.Delete(ctx, key, jetstream.LastRevision(entry.Revision()))
		return nil, notFound(key)
	}

	return val, nil
}

// Get 获取键的值.
func (n *NATSKV) Get(ctx context.Context, key string) ([]byte, error) {
	return n.load(ctx, key)
}

// Set 设置键的值.
func (n *NATSKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := seal(value, ttl, n.now())
	if err != nil {
		return err
	}

	if _, err := n.kv.Put(ctx, key, encoded); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	return nil
}

// Delete 删除键.
func (n *NATSKV) Delete(ctx context.Context, key string) error {
	if err := n.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

// Exists 检查键是否存在.
func (n *NATSKV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := n.load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	return err == nil, err
}

// Keys 列出匹配 glob 的未过期键.
func (n *NATSKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	lister, err := n.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer lister.Stop()

	out := []string{}

	for key := range lister.Keys() {
		if !matchKey(pattern, key) {
			continue
		}

		if _, err := n.load(ctx, key); err != nil {
			continue
		}

		out = append(out, key)
	}

	return out, nil
}

// HealthCheck 读取 bucket 状态.
func (n *NATSKV) HealthCheck(ctx context.Context) error {
	_, err := n.kv.Status(ctx)
	return err
}

// Close 关闭 NATS 连接.
func (n *NATSKV) Close() error {
	n.conn.Close()
	return nil
}

func init() {
	RegisterKVFactory(configs.KVTypeNATS, NewNATSKV)
}
