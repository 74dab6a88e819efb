package service

import (
	"context"
	"testing"
)

// TestStats 测试按类型统计，已删除与其他用户的文件不计入.
func TestStats(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.upload(t, alice, "aaaa", nil)
	env.upload(t, alice, "bb", nil)
	env.upload(t, bob, "ignored", nil)

	img, err := env.svc.Files.Upload(ctx, alice, pngInput(t, 4, 4))
	if err != nil {
		t.Fatalf("Upload png: %v", err)
	}

	trashed := env.upload(t, alice, "trashed", nil)
	_ = env.svc.Files.Delete(ctx, alice, trashed.ID)

	counts, err := env.svc.Stats.CountByType(ctx, alice)
	if err != nil {
		t.Fatalf("CountByType: %v", err)
	}

	if len(counts) != 2 || counts[0] != (TypeCount{MimeType: "text/plain", Count: 2}) || counts[1].MimeType != "image/png" {
		t.Errorf("counts = %+v", counts)
	}

	total, err := env.svc.Stats.TotalStorage(ctx, alice)
	if err != nil {
		t.Fatalf("TotalStorage: %v", err)
	}

	if want := 6 + img.Size; total.TotalSize != want {
		t.Errorf("total = %d, want %d", total.TotalSize, want)
	}

	sizes, err := env.svc.Stats.StorageByType(ctx, alice)
	if err != nil {
		t.Fatalf("StorageByType: %v", err)
	}

	if len(sizes) != 2 || sizes[0].MimeType != "image/png" || sizes[0].TotalSize != img.Size {
		t.Errorf("sizes = %+v", sizes)
	}

	empty, err := env.svc.Stats.CountByType(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("empty = %+v, %v", empty, err)
	}
}
