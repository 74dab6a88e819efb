package kv

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/filevault/pkg/configs"
)

// PeerPath groupcache 节点间请求的路径前缀.
const PeerPath = "/_groupcache/"

// versionSep 分隔键与版本号，业务键中不会出现.
const versionSep = "\x00"

var (
	// groups 按组名找到当前实例，groupcache 的组在进程内不可重复创建.
	groupsMu sync.RWMutex
	groups   = map[string]*GroupcacheKV{}

	poolOnce sync.Once
	pool     *groupcache.HTTPPool

	// versionSeq 进程内全局递增，同名组重建后也不会复用旧版本号.
	versionSeq atomic.Uint64
)

// GroupcacheKV 以进程内 MemoryKV 为源、groupcache 为读缓存的 KV.
// 每次 Set/Delete 递增键的版本号，groupcache 按 "键+版本" 缓存，旧版本不会再被读到.
type GroupcacheKV struct {
	name   string
	origin *MemoryKV
	group  *groupcache.Group

	mu       sync.Mutex
	versions map[string]uint64
}

// NewGroupcacheKV 创建 Groupcache KV 实例. 配置了 peers 时各节点通过 PeerHandler 互相取数.
func NewGroupcacheKV(_ context.Context, cfg *configs.KVConfig) (KVStore, error) {
	gc := cfg.Groupcache

	g := &GroupcacheKV{
		name:     gc.Name,
		origin:   NewMemory(),
		versions: make(map[string]uint64),
	}

	groupsMu.Lock()
	groups[gc.Name] = g
	groupsMu.Unlock()

	g.group = groupcache.GetGroup(gc.Name)
	if g.group == nil {
		g.group = groupcache.NewGroup(gc.Name, gc.CacheBytes, groupcache.GetterFunc(loadOrigin(gc.Name)))
	}

	if len(gc.Peers) > 0 {
		poolOnce.Do(func() {
			pool = groupcache.NewHTTPPoolOpts(gc.Self, &groupcache.HTTPPoolOptions{BasePath: PeerPath})
		})
		pool.Set(gc.Peers...)
	}

	return g, nil
}

// loadOrigin 返回组的 getter，请求的版本不是当前版本时视为不存在，避免旧值进入缓存.
func loadOrigin(name string) func(ctx context.Context, key string, dest groupcache.Sink) error {
	return func(ctx context.Context, vkey string, dest groupcache.Sink) error {
		groupsMu.RLock()
		g := groups[name]
		groupsMu.RUnlock()

		key, ver, ok := splitVersion(vkey)
		if g == nil || !ok || g.version(key) != ver {
			return notFound(vkey)
		}

		raw, found := g.origin.load(key)
		if !found {
			return notFound(key)
		}

		return dest.SetBytes(raw)
	}
}

func splitVersion(vkey string) (string, uint64, bool) {
	i := strings.LastIndex(vkey, versionSep)
	if i < 0 {
		return "", 0, false
	}

	ver, err := strconv.ParseUint(vkey[i+len(versionSep):], 10, 64)
	if err != nil {
		return "", 0, false
	}

	return vkey[:i], ver, true
}

func (g *GroupcacheKV) version(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.versions[key]
}

// bump 为键分配新版本，drop 为真时移除版本记录.
func (g *GroupcacheKV) bump(key string, drop bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if drop {
		delete(g.versions, key)
		return
	}

	g.versions[key] = versionSeq.Add(1)
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	ver := g.version(key)
	if ver == 0 {
		return nil, notFound(key)
	}

	var data []byte
	if err := g.group.Get(ctx, key+versionSep+strconv.FormatUint(ver, 10), groupcache.AllocatingByteSliceSink(&data)); err != nil {
		return nil, notFound(key)
	}

	val, live, err := unseal(data, time.Now())
	if err != nil {
		return nil, err
	}

	if !live {
		return nil, notFound(key)
	}

	return bytes.Clone(val), nil
}

// Set 设置键的值. 过期时间写入值本身，groupcache 中的副本读取时同样会判断.
func (g *GroupcacheKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := seal(value, ttl, time.Now())
	if err != nil {
		return err
	}

	if err := g.origin.Set(ctx, key, encoded, ttl); err != nil {
		return err
	}

	g.bump(key, false)

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(ctx context.Context, key string) error {
	g.bump(key, true)

	return g.origin.Delete(ctx, key)
}

// Exists 检查键是否存在.
func (g *GroupcacheKV) Exists(ctx context.Context, key string) (bool, error) {
	return g.origin.Exists(ctx, key)
}

// Keys 列出本节点写入的键.
func (g *GroupcacheKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	return g.origin.Keys(ctx, pattern)
}

// PeerHandler 返回节点间通信的 http.Handler，未配置 peers 时为 nil.
func (g *GroupcacheKV) PeerHandler() http.Handler {
	if pool == nil {
		return nil
	}

	return pool
}

// Close 解除组名与实例的绑定，groupcache 本身没有关闭方法.
func (g *GroupcacheKV) Close() error {
	groupsMu.Lock()
	if groups[g.name] == g {
		delete(groups, g.name)
	}
	groupsMu.Unlock()

	return nil
}

func init() {
	RegisterKVFactory(configs.KVTypeGroupcache, NewGroupcacheKV)
}
