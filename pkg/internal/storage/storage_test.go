package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/yeisme/filevault/pkg/configs"
)

// TestInitLocal 测试使用 sqlite + 本地磁盘 + 内存 KV + gochannel 初始化.
func TestInitLocal(t *testing.T) {
	dir := t.TempDir()

	cfg := configs.Default()
	cfg.DB.Type = configs.SQLite
	cfg.DB.Database = filepath.Join(dir, "fv")
	cfg.Blob.Type = configs.BlobTypeLocal
	cfg.Blob.LocalRoot = filepath.Join(dir, "blobs")
	cfg.KV.Type = configs.KVTypeMemory
	cfg.MQ.Type = configs.MQTypeGoChannel

	ctx := context.Background()

	m, err := Init(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer m.Close()

	for _, c := range []Component{ComponentDB, ComponentBlob, ComponentKV, ComponentMQ} {
		if err := m.HealthCheck(ctx, c); err != nil {
			t.Errorf("HealthCheck(%s): %v", c, err)
		}
	}

	if err := m.HealthCheck(ctx, ComponentS3); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("HealthCheck(s3) = %v, want ErrNotConfigured", err)
	}

	if m.GetS3Client() != nil {
		t.Error("s3 client should be nil for local blob backend")
	}
}
