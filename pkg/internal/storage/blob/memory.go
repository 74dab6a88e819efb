package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore 进程内存储，用于测试与单机演示.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore 创建内存存储.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if !ValidKey(key) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read blob %s: %w", key, err)
	}

	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()

	return key, nil
}

func (m *MemoryStore) Get(ctx context.Context, locator string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	data, ok := m.objects[locator]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%s: %w", locator, ErrNotFound)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Delete(ctx context.Context, locator string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.objects, locator)
	m.mu.Unlock()

	return nil
}

// Has 对象是否存在.
func (m *MemoryStore) Has(locator string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.objects[locator]

	return ok
}

// Len 对象数量.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.objects)
}
