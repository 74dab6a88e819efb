package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/errs"
)

// TestUploadText 测试文本文件上传后大小正确且没有预览.
func TestUploadText(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	f := env.upload(t, alice, "0123456789", nil)

	if f.Size != 10 || f.MimeType != "text/plain" || f.Name != "note.txt" {
		t.Errorf("unexpected file: %+v", f)
	}

	if f.HasPreview() {
		t.Errorf("text file should have no preview")
	}

	if !env.blobs.Has(f.BlobKey) {
		t.Errorf("blob %s not written", f.BlobKey)
	}

	if !f.CreatedAt.Equal(env.clock.Now()) || !f.UpdatedAt.Equal(f.CreatedAt) {
		t.Errorf("timestamps = %v / %v", f.CreatedAt, f.UpdatedAt)
	}

	if err := env.svc.Previews.Generate(ctx, f.ID); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	got, err := env.svc.Files.Get(ctx, alice, f.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.HasPreview() {
		t.Errorf("preview generated for text file")
	}

	_, rc, err := env.svc.Files.Open(ctx, alice, f.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	body, _ := io.ReadAll(rc)
	if string(body) != "0123456789" {
		t.Errorf("content = %q", body)
	}
}

// TestUploadValidation 测试上传参数校验.
func TestUploadValidation(t *testing.T) {
	env := newTestEnv(t, func(cfg *configs.AppConfig) { cfg.Upload.MaxFileSizeMB = 1 })
	ctx := context.Background()

	big := textInput("big.txt", "", nil)
	big.Size = 2 << 20

	exe := textInput("a.exe", "MZ", nil)
	exe.MimeType = "application/x-msdownload"

	cases := []struct {
		name string
		in   UploadInput
	}{
		{"missing content", UploadInput{UploadItem: UploadItem{Filename: "a.txt", MimeType: "text/plain"}}},
		{"too large", big},
		{"mime not allowed", exe},
		{"unknown folder", textInput("a.txt", "x", ptr("nope"))},
	}

	for _, tc := range cases {
		_, err := env.svc.Files.Upload(ctx, alice, tc.in)
		if !errors.Is(err, errs.ErrValidation) {
			t.Errorf("%s: err = %v, want validation", tc.name, err)
		}
	}

	if n := env.countFiles(t, alice); n != 0 {
		t.Errorf("rows = %d", n)
	}
}

// TestUploadSizeMismatch 测试内容长度与声明不符时拒绝并清理内容.
func TestUploadSizeMismatch(t *testing.T) {
	env := newTestEnv(t, nil)

	in := textInput("a.txt", "hello", nil)
	in.Size = 3

	if _, err := env.svc.Files.Upload(context.Background(), alice, in); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("err = %v", err)
	}

	if env.blobs.Len() != 0 || env.countFiles(t, alice) != 0 {
		t.Errorf("leftovers: blobs=%d rows=%d", env.blobs.Len(), env.countFiles(t, alice))
	}
}

// TestUploadIntoForeignFolder 测试不能上传到其他用户的目录.
func TestUploadIntoForeignFolder(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	folder, err := env.svc.Folders.Create(ctx, bob, "docs", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = env.svc.Files.Upload(ctx, alice, textInput("a.txt", "x", &folder.ID))
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("err = %v, want validation", err)
	}
}

// TestBulkUpload 测试批量上传与显示名称.
func TestBulkUpload(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	in := BulkUploadInput{Name: "shared"}
	for _, s := range []string{"a", "bb", "ccc"} {
		in.Items = append(in.Items, UploadItem{Content: strings.NewReader(s), Size: int64(len(s)), Filename: s + ".txt", MimeType: "text/plain"})
	}

	files, err := env.svc.Files.BulkUpload(ctx, alice, in)
	if err != nil {
		t.Fatalf("BulkUpload: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("len = %d", len(files))
	}

	for _, f := range files {
		if f.Name != "shared" {
			t.Errorf("name = %q", f.Name)
		}
	}
}

// TestBulkUploadAllOrNothing 测试批量上传按总大小检查配额.
func TestBulkUploadAllOrNothing(t *testing.T) {
	env := newTestEnv(t, func(cfg *configs.AppConfig) { cfg.Upload.QuotaBytesPerUser = 5 })

	in := BulkUploadInput{Items: []UploadItem{
		{Content: strings.NewReader("abc"), Size: 3, Filename: "a.txt", MimeType: "text/plain"},
		{Content: strings.NewReader("abc"), Size: 3, Filename: "b.txt", MimeType: "text/plain"},
	}}

	if _, err := env.svc.Files.BulkUpload(context.Background(), alice, in); !errors.Is(err, errs.ErrQuotaExceeded) {
		t.Fatalf("err = %v", err)
	}

	if n := env.countFiles(t, alice); n != 0 || env.blobs.Len() != 0 {
		t.Errorf("rows=%d blobs=%d", n, env.blobs.Len())
	}
}

// TestBulkUploadPartialFailure 测试部分失败时保留已写入的文件.
func TestBulkUploadPartialFailure(t *testing.T) {
	env := newTestEnv(t, nil)

	in := BulkUploadInput{Items: []UploadItem{
		{Content: strings.NewReader("abc"), Size: 3, Filename: "a.txt", MimeType: "text/plain"},
		{Content: strings.NewReader("abcdef"), Size: 4, Filename: "b.txt", MimeType: "text/plain"},
	}}

	files, err := env.svc.Files.BulkUpload(context.Background(), alice, in)

	var bulkErr *BulkError
	if !errors.As(err, &bulkErr) {
		t.Fatalf("err = %v, want *BulkError", err)
	}

	if len(files) != 1 || len(bulkErr.Failed) != 1 || bulkErr.Failed[0].Filename != "b.txt" {
		t.Errorf("files=%d failed=%+v", len(files), bulkErr.Failed)
	}

	if n := env.countFiles(t, alice); n != 1 {
		t.Errorf("rows = %d", n)
	}
}

// TestBulkUploadLimits 测试批量上传数量限制.
func TestBulkUploadLimits(t *testing.T) {
	env := newTestEnv(t, func(cfg *configs.AppConfig) { cfg.Upload.MaxBulkFiles = 1 })
	ctx := context.Background()

	if _, err := env.svc.Files.BulkUpload(ctx, alice, BulkUploadInput{}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("empty: err = %v", err)
	}

	in := BulkUploadInput{Items: []UploadItem{
		{Content: strings.NewReader("a"), Size: 1, Filename: "a.txt", MimeType: "text/plain"},
		{Content: strings.NewReader("b"), Size: 1, Filename: "b.txt", MimeType: "text/plain"},
	}}
	if _, err := env.svc.Files.BulkUpload(ctx, alice, in); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("too many: err = %v", err)
	}
}

// TestFileLifecycle 测试列表、移动与删除.
func TestFileLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	folder, err := env.svc.Folders.Create(ctx, alice, "docs", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f := env.upload(t, alice, "hello", nil)

	moved, err := env.svc.Files.Move(ctx, alice, f.ID, &folder.ID)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}

	if moved.FolderID == nil || *moved.FolderID != folder.ID {
		t.Errorf("folder = %v", moved.FolderID)
	}

	root, err := env.svc.Files.List(ctx, alice, nil)
	if err != nil || len(root) != 0 {
		t.Errorf("root list = %d, %v", len(root), err)
	}

	inFolder, err := env.svc.Files.List(ctx, alice, &folder.ID)
	if err != nil || len(inFolder) != 1 {
		t.Errorf("folder list = %d, %v", len(inFolder), err)
	}

	if _, err := env.svc.Files.Move(ctx, alice, f.ID, ptr("missing")); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("move to missing folder: %v", err)
	}

	if _, err := env.svc.Files.Get(ctx, bob, f.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("foreign get: %v", err)
	}

	if err := env.svc.Files.Delete(ctx, alice, f.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if err := env.svc.Files.Delete(ctx, alice, f.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}

	if _, _, err := env.svc.Files.Open(ctx, alice, f.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("download trashed: %v", err)
	}

	if _, _, err := env.svc.Files.OpenPreview(ctx, alice, f.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("preview trashed: %v", err)
	}
}

// TestMimeAllowed 测试 MIME 白名单匹配.
func TestMimeAllowed(t *testing.T) {
	allowed := []string{"image/png", "video/*"}

	cases := map[string]bool{
		"image/png":  true,
		"IMAGE/PNG":  true,
		"image/jpeg": false,
		"video/mp4":  true,
		"videos/mp4": false,
		"":           false,
	}

	for mt, want := range cases {
		if got := MimeAllowed(allowed, mt); got != want {
			t.Errorf("MimeAllowed(%q) = %v, want %v", mt, got, want)
		}
	}
}
