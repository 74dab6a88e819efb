package kv_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/storage/kv"
)

// stores 返回可在本机测试的实现，redis 与 nats 需要通过环境变量指定地址.
func stores(t testing.TB) map[string]kv.KVStore {
	t.Helper()

	ctx := context.Background()
	out := map[string]kv.KVStore{"memory": kv.NewMemory()}

	gc, err := kv.NewKVStore(ctx, &configs.KVConfig{Type: configs.KVTypeGroupcache, Groupcache: configs.GroupcacheKVConfig{
		Name: "test-" + t.Name(), CacheBytes: 1 << 20,
	}})
	if err != nil {
		t.Fatalf("groupcache: %v", err)
	}

	out["groupcache"] = gc

	if addr := os.Getenv("FILEVAULT_TEST_REDIS"); addr != "" {
		s, err := kv.NewKVStore(ctx, &configs.KVConfig{Type: configs.KVTypeRedis, Redis: configs.RedisKVConfig{Addr: addr}})
		if err != nil {
			t.Fatalf("redis: %v", err)
		}

		out["redis"] = s
	}

	if url := os.Getenv("FILEVAULT_TEST_NATS"); url != "" {
		s, err := kv.NewKVStore(ctx, &configs.KVConfig{Type: configs.KVTypeNATS, NATS: configs.NATSKVConfig{
			URL: url, Bucket: "filevault-test", Storage: "memory", Replicas: 1, MaxBytes: -1,
		}})
		if err != nil {
			t.Fatalf("nats: %v", err)
		}

		out["nats"] = s
	}

	t.Cleanup(func() {
		for _, s := range out {
			_ = s.Close()
		}
	})

	return out
}

// TestStoreContract 测试各实现的读写、覆盖、删除与列举行为一致.
func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Get(ctx, "stats-missing"); !errors.Is(err, kv.ErrNotFound) {
				t.Errorf("missing key err = %v", err)
			}

			if err := store.Set(ctx, "stats-a", []byte("v1"), time.Hour); err != nil {
				t.Fatal(err)
			}

			if v, err := store.Get(ctx, "stats-a"); err != nil || string(v) != "v1" {
				t.Fatalf("Get = %q, %v", v, err)
			}

			// 覆盖后必须读到新值
			if err := store.Set(ctx, "stats-a", []byte("v2"), 0); err != nil {
				t.Fatal(err)
			}

			if v, err := store.Get(ctx, "stats-a"); err != nil || string(v) != "v2" {
				t.Errorf("Get after overwrite = %q, %v", v, err)
			}

			if err := store.Set(ctx, "link-b", []byte("w"), 0); err != nil {
				t.Fatal(err)
			}

			keys, err := store.Keys(ctx, "stats-*")
			if err != nil {
				t.Fatal(err)
			}

			if !slices.Equal(keys, []string{"stats-a"}) {
				t.Errorf("keys = %v", keys)
			}

			if err := store.Delete(ctx, "stats-a"); err != nil {
				t.Fatal(err)
			}

			if _, err := store.Get(ctx, "stats-a"); !errors.Is(err, kv.ErrNotFound) {
				t.Errorf("Get after delete err = %v", err)
			}

			if ok, err := store.Exists(ctx, "link-b"); err != nil || !ok {
				t.Errorf("Exists = %v, %v", ok, err)
			}
		})
	}
}

// TestStoreTTL 测试条目按 TTL 过期.
func TestStoreTTL(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Set(ctx, "ttl-a", []byte("v"), 20*time.Millisecond); err != nil {
				t.Fatal(err)
			}

			if v, err := store.Get(ctx, "ttl-a"); err != nil || string(v) != "v" {
				t.Fatalf("Get before expiry = %q, %v", v, err)
			}

			time.Sleep(60 * time.Millisecond)

			if _, err := store.Get(ctx, "ttl-a"); !errors.Is(err, kv.ErrNotFound) {
				t.Errorf("expected ErrNotFound after expiry, got %v", err)
			}

			if ok, _ := store.Exists(ctx, "ttl-a"); ok {
				t.Error("expired key still exists")
			}
		})
	}
}

// TestGroupcacheReplacesInstance 测试同名组重建后读取新实例的数据.
func TestGroupcacheReplacesInstance(t *testing.T) {
	ctx := context.Background()
	cfg := &configs.KVConfig{Type: configs.KVTypeGroupcache, Groupcache: configs.GroupcacheKVConfig{
		Name: "replace-test", CacheBytes: 1 << 20,
	}}

	first, err := kv.NewKVStore(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}

	_ = first.Set(ctx, "k", []byte("old"), 0)
	_ = first.Close()

	second, err := kv.NewKVStore(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	if _, err := second.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("new instance should not see old data, err = %v", err)
	}

	_ = second.Set(ctx, "k", []byte("new"), 0)

	if v, err := second.Get(ctx, "k"); err != nil || string(v) != "new" {
		t.Errorf("Get = %q, %v", v, err)
	}
}

// TestRegisteredTypes 测试默认构建注册了全部 KV 实现.
func TestRegisteredTypes(t *testing.T) {
	want := []configs.KVType{configs.KVTypeGroupcache, configs.KVTypeMemory, configs.KVTypeNATS, configs.KVTypeRedis}
	if got := kv.GetRegisteredKVTypes(); !slices.Equal(got, want) {
		t.Errorf("registered kv types = %v, want %v", got, want)
	}
}

func BenchmarkStores(b *testing.B) {
	ctx := context.Background()
	payload := make([]byte, 1024)

	for name, store := range stores(b) {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()

			for i := 0; b.Loop(); i++ {
				key := fmt.Sprintf("bench-%d", i)
				if err := store.Set(ctx, key, payload, time.Minute); err != nil {
					b.Fatal(err)
				}

				if _, err := store.Get(ctx, key); err != nil {
					b.Fatal(err)
				}

				if err := store.Delete(ctx, key); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
