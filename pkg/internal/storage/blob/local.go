package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore 本地磁盘存储，写入采用临时文件 + rename 保证原子性.
type LocalStore struct {
	root string
}

// NewLocalStore 创建本地存储，根目录不存在时自动创建.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create blob root %s: %w", root, err)
	}

	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	if !ValidKey(key) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}

	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	full, err := s.path(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("create dir for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", key, err)
	}

	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		cleanup()
		return "", fmt.Errorf("write %s: %w", key, err)
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", fmt.Errorf("fsync %s: %w", key, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close %s: %w", key, err)
	}

	if err := os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename %s: %w", key, err)
	}

	return key, nil
}

func (s *LocalStore) Get(_ context.Context, locator string) (io.ReadCloser, error) {
	full, err := s.path(locator)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", locator, ErrNotFound)
		}

		return nil, fmt.Errorf("open %s: %w", locator, err)
	}

	return f, nil
}

func (s *LocalStore) Delete(_ context.Context, locator string) error {
	full, err := s.path(locator)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", locator, err)
	}

	return nil
}

// HealthCheck 检查根目录可访问.
func (s *LocalStore) HealthCheck(context.Context) error {
	_, err := os.Stat(s.root)
	return err
}

// ctxReader 在每次读取前检查 ctx，使大文件写入可被取消.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}
