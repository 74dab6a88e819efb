package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/filevault/pkg/internal/storage/blob"
)

// failingDeletes 对指定定位符的删除返回错误.
type failingDeletes struct {
	blob.Store

	fail map[string]bool
}

func (f *failingDeletes) Delete(ctx context.Context, locator string) error {
	if f.fail[locator] {
		return errors.New("backend unavailable")
	}

	return f.Store.Delete(ctx, locator)
}

// TestSweep 测试只清理超过保留期的文件.
func TestSweep(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	old := env.upload(t, alice, "old", nil)
	oldBob := env.upload(t, bob, "old", nil)
	recent := env.upload(t, alice, "recent", nil)
	live := env.upload(t, alice, "live", nil)

	_ = env.svc.Files.Delete(ctx, alice, old.ID)
	_ = env.svc.Files.Delete(ctx, bob, oldBob.ID)

	env.clock.Advance(20 * 24 * time.Hour)
	_ = env.svc.Files.Delete(ctx, alice, recent.ID)
	env.clock.Advance(11 * 24 * time.Hour)

	res := env.svc.Sweeper.Sweep(ctx, 30)

	if res.Scanned != 2 || res.Purged != 2 || len(res.Failures) != 0 {
		t.Fatalf("result = %+v", res)
	}

	if env.blobs.Has(old.BlobKey) || env.blobs.Has(oldBob.BlobKey) {
		t.Errorf("expired blobs not removed")
	}

	for _, id := range []string{recent.ID, live.ID} {
		var n int64
		env.db.Unscoped().Table("files").Where("id = ?", id).Count(&n)

		if n != 1 {
			t.Errorf("file %s removed", id)
		}
	}

	if again := env.svc.Sweeper.Sweep(ctx, 30); again.Scanned != 0 {
		t.Errorf("second sweep scanned %d", again.Scanned)
	}
}

// TestSweepIsolatesFailures 测试单个文件失败不影响其余文件.
func TestSweepIsolatesFailures(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	bad := env.upload(t, alice, "bad", nil)
	good := env.upload(t, alice, "good", nil)

	_ = env.svc.Files.Delete(ctx, alice, bad.ID)
	_ = env.svc.Files.Delete(ctx, alice, good.ID)

	env.clock.Advance(time.Second)
	env.svc.Sweeper.blobs = &failingDeletes{Store: env.blobs, fail: map[string]bool{bad.BlobKey: true}}

	res := env.svc.Sweeper.Sweep(ctx, 0)

	if res.Scanned != 2 || res.Purged != 1 || len(res.Failures) != 1 {
		t.Fatalf("result = %+v", res)
	}

	if f := res.Failures[0]; f.FileID != bad.ID || f.Stage != StageBlob {
		t.Errorf("failure = %+v", f)
	}

	if n := env.countFiles(t, alice); n != 1 {
		t.Errorf("rows = %d, want the failed file kept", n)
	}
}

// TestSweepDefaultDays 测试 days < 0 时使用配置的保留天数.
func TestSweepDefaultDays(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	f := env.upload(t, alice, "x", nil)
	_ = env.svc.Files.Delete(ctx, alice, f.ID)

	env.clock.Advance(time.Duration(env.cfg.Retention.Days-1) * 24 * time.Hour)

	if res := env.svc.Sweeper.Sweep(ctx, -1); res.Purged != 0 {
		t.Errorf("purged %d within retention", res.Purged)
	}

	env.clock.Advance(2 * 24 * time.Hour)

	if res := env.svc.Sweeper.Sweep(ctx, -1); res.Purged != 1 {
		t.Errorf("purged %d after retention", res.Purged)
	}
}
