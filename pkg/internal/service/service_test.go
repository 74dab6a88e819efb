package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/storage/blob"
	"github.com/yeisme/filevault/pkg/internal/storage/db"
	"github.com/yeisme/filevault/pkg/internal/storage/kv"
	nlog "github.com/yeisme/filevault/pkg/log"
)

const (
	alice = "alice@example.com"
	bob   = "bob@example.com"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	svc   *Services
	db    *gorm.DB
	blobs *blob.MemoryStore
	cfg   *configs.AppConfig
	clock *fakeClock
}

// newTestEnv 创建基于临时 sqlite 与内存 blob 的服务.
func newTestEnv(t *testing.T, mutate func(cfg *configs.AppConfig)) *testEnv {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "fv.db") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	c, err := db.Open(context.Background(), sqlite.Open(dsn), db.PoolOptions{MaxOpen: 1, MaxIdle: 1})
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}

	t.Cleanup(func() { _ = c.Close() })

	cfg := configs.Default()
	cfg.Upload.AllowedMimeTypes = []string{"text/plain", "image/*", "video/*", "application/pdf"}
	cfg.Upload.QuotaBytesPerUser = 0
	cfg.Preview.Enabled = false
	cfg.Preview.RetryBackoff = time.Millisecond
	cfg.Preview.MaxRetryBackoff = 4 * time.Millisecond

	if mutate != nil {
		mutate(cfg)
	}

	env := &testEnv{
		db:    c.GetDB(),
		blobs: blob.NewMemoryStore(),
		cfg:   cfg,
		clock: &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
	}

	env.svc = New(Deps{
		DB:     env.db,
		Blobs:  env.blobs,
		KV:     kv.NewMemory(),
		Config: cfg,
		Clock:  env.clock.Now,
		Logger: nlog.Nop(),
	})

	return env
}

// upload 上传一段文本，失败时终止测试.
func (e *testEnv) upload(t *testing.T, owner, content string, folderID *string) *model.File {
	t.Helper()

	f, err := e.svc.Files.Upload(context.Background(), owner, textInput("note.txt", content, folderID))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	return f
}

func (e *testEnv) countFiles(t *testing.T, owner string) int64 {
	t.Helper()

	var n int64
	if err := e.db.Unscoped().Model(&model.File{}).Where("owner = ?", owner).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	return n
}

func textInput(name, content string, folderID *string) UploadInput {
	return UploadInput{
		UploadItem: UploadItem{
			Content:  strings.NewReader(content),
			Size:     int64(len(content)),
			Filename: name,
			MimeType: "text/plain",
		},
		FolderID: folderID,
	}
}

func pngInput(t *testing.T, w, h int) UploadInput {
	t.Helper()

	data := pngBytes(t, w, h)

	return UploadInput{UploadItem: UploadItem{
		Content:  bytes.NewReader(data),
		Size:     int64(len(data)),
		Filename: "photo.png",
		MimeType: "image/png",
	}}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	return buf.Bytes()
}

func ptr[T any](v T) *T { return &v }
