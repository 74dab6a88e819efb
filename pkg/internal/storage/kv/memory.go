package kv

import (
	"context"
	"sync"
	"time"

	"github.com/yeisme/filevault/pkg/configs"
)

type memoryEntry struct {
	value    []byte
	expireAt time.Time // 零值表示不过期
}

// MemoryKV 进程内 KV，过期键在读取时惰性删除.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	now  func() time.Time
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(_ context.Context, _ *configs.KVConfig) (KVStore, error) {
	return NewMemory(), nil
}

// NewMemory 直接返回 *MemoryKV，测试中使用.
func NewMemory() *MemoryKV {
	return &MemoryKV{data: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryKV) load(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if !e.expireAt.IsZero() && !m.now().Before(e.expireAt) {
		m.mu.Lock()
		if cur, still := m.data[key]; still && cur.expireAt.Equal(e.expireAt) {
			delete(m.data, key)
		}
		m.mu.Unlock()

		return nil, false
	}

	return e.value, true
}

// Get 获取键的值.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.load(key)
	if !ok {
		return nil, notFound(key)
	}

	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: make([]byte, len(value))}
	copy(e.value, value)

	if ttl > 0 {
		e.expireAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.data[key] = e
	m.mu.Unlock()

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()

	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.load(key)
	return ok, nil
}

// Keys 获取匹配的键.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	candidates := make([]string, 0, len(m.data))

	for k := range m.data {
		if matchKey(pattern, k) {
			candidates = append(candidates, k)
		}
	}
	m.mu.RUnlock()

	keys := candidates[:0]
	for _, k := range candidates {
		if _, ok := m.load(k); ok {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

// Close 关闭存储（内存实现无需操作）.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(configs.KVTypeMemory, NewMemoryKV)
}
