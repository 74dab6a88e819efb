package cache_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/filevault/pkg/cache"
	"github.com/yeisme/filevault/pkg/internal/storage/kv"
)

// usage 模拟按用户缓存的统计结果.
type usage struct {
	Owner string   `json:"owner"`
	Files int64    `json:"files"`
	Bytes int64    `json:"bytes"`
	Types []string `json:"types,omitempty"`
}

// TestSetGet 测试写入带前缀，读取按类型解码.
func TestSetGet(t *testing.T) {
	store := kv.NewMemory()
	c := cache.NewCache(store, "t:")
	ctx := context.Background()

	if _, err := cache.Get[usage](ctx, c, "stats:alice"); !cache.IsMiss(err) {
		t.Errorf("empty cache: want miss, got %v", err)
	}

	want := usage{Owner: "alice", Files: 3, Bytes: 2048, Types: []string{"image/png", "text/plain"}}
	if err := cache.Set(ctx, c, "stats:alice", want, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if ok, _ := store.Exists(ctx, "t:stats:alice"); !ok {
		t.Error("value not stored under prefixed key")
	}

	got, err := cache.Get[usage](ctx, c, "stats:alice")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.Owner != want.Owner || got.Bytes != want.Bytes || !slices.Equal(got.Types, want.Types) {
		t.Errorf("Get = %+v, want %+v", got, want)
	}

	if n, err := cache.Get[int64](ctx, c, "stats:alice"); err == nil {
		t.Errorf("decoding into the wrong type should fail, got %d", n)
	}
}

// TestDeleteExists 测试删除后不再存在.
func TestDeleteExists(t *testing.T) {
	c := cache.NewCache(kv.NewMemory(), "t:")
	ctx := context.Background()

	_ = cache.Set(ctx, c, "link:abc", "file-1", 0)

	if ok, err := c.Exists(ctx, "link:abc"); err != nil || !ok {
		t.Fatalf("Exists before delete = %v, %v", ok, err)
	}

	if err := c.Delete(ctx, "link:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if ok, _ := c.Exists(ctx, "link:abc"); ok {
		t.Error("key still exists after delete")
	}
}

// TestTTL 测试过期后视为未命中.
func TestTTL(t *testing.T) {
	c := cache.NewCache(kv.NewMemory(), "t:")
	ctx := context.Background()

	if err := cache.Set(ctx, c, "short", "v", 20*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}

	time.Sleep(40 * time.Millisecond)

	if _, err := cache.Get[string](ctx, c, "short"); !cache.IsMiss(err) {
		t.Errorf("want miss after ttl, got %v", err)
	}
}

// TestGetOrSet 测试第二次读取命中缓存，回源错误原样返回且不写入.
func TestGetOrSet(t *testing.T) {
	c := cache.NewCache(kv.NewMemory(), "t:")
	ctx := context.Background()

	calls := 0
	load := func() (usage, error) {
		calls++
		return usage{Owner: "bob", Files: 1}, nil
	}

	for range 2 {
		u, err := cache.GetOrSet(ctx, c, "stats:bob", load, time.Minute)
		if err != nil || u.Owner != "bob" {
			t.Fatalf("GetOrSet = %+v, %v", u, err)
		}
	}

	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}

	errLoad := errors.New("db down")

	_, err := cache.GetOrSet(ctx, c, "stats:carol", func() (usage, error) { return usage{}, errLoad }, time.Minute)
	if !errors.Is(err, errLoad) {
		t.Errorf("err = %v, want %v", err, errLoad)
	}

	if ok, _ := c.Exists(ctx, "stats:carol"); ok {
		t.Error("failed load must not be cached")
	}
}

// TestGetOrSetConcurrent 测试并发未命中只回源一次.
func TestGetOrSetConcurrent(t *testing.T) {
	c := cache.NewCache(kv.NewMemory(), "t:")
	ctx := context.Background()

	var calls atomic.Int32

	release := make(chan struct{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			u, err := cache.GetOrSet(ctx, c, "stats:dave", func() (usage, error) {
				calls.Add(1)
				<-release

				return usage{Owner: "dave"}, nil
			}, time.Minute)
			if err != nil || u.Owner != "dave" {
				t.Errorf("GetOrSet = %+v, %v", u, err)
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
}

// TestGetOrSet_NilCache 测试未配置缓存时直接回源.
func TestGetOrSet_NilCache(t *testing.T) {
	var c *cache.Cache

	calls := 0
	for range 2 {
		u, err := cache.GetOrSet(context.Background(), c, "k", func() (usage, error) {
			calls++
			return usage{Files: 1}, nil
		}, time.Minute)
		if err != nil || u.Files != 1 {
			t.Fatalf("GetOrSet = %+v, %v", u, err)
		}
	}

	if calls != 2 {
		t.Errorf("nil cache should always load, got %d calls", calls)
	}
}

// TestGetOrSet_CorruptEntry 测试无法解码的缓存值被回源结果覆盖.
func TestGetOrSet_CorruptEntry(t *testing.T) {
	store := kv.NewMemory()
	c := cache.NewCache(store, "t:")
	ctx := context.Background()

	if err := store.Set(ctx, "t:stats:erin", []byte("{broken"), 0); err != nil {
		t.Fatalf("seed: %v", err)
	}

	u, err := cache.GetOrSet(ctx, c, "stats:erin", func() (usage, error) {
		return usage{Owner: "erin"}, nil
	}, 0)
	if err != nil || u.Owner != "erin" {
		t.Fatalf("GetOrSet = %+v, %v", u, err)
	}

	if got, err := cache.Get[usage](ctx, c, "stats:erin"); err != nil || got.Owner != "erin" {
		t.Errorf("entry not repaired: %+v, %v", got, err)
	}
}

// TestClear 测试只清空自身命名空间.
func TestClear(t *testing.T) {
	store := kv.NewMemory()
	c := cache.NewCache(store, "t:")
	ctx := context.Background()

	for _, owner := range []string{"alice", "bob", "carol"} {
		if err := cache.Set(ctx, c, "stats:"+owner, usage{Owner: owner}, 0); err != nil {
			t.Fatal(err)
		}
	}

	_ = store.Set(ctx, "other:key", []byte("1"), 0)

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if keys, _ := store.Keys(ctx, "t:*"); len(keys) != 0 {
		t.Errorf("keys left after clear: %v", keys)
	}

	if ok, _ := store.Exists(ctx, "other:key"); !ok {
		t.Error("Clear removed a key outside its namespace")
	}
}
