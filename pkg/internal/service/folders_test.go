package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/errs"
	"github.com/yeisme/filevault/pkg/internal/model"
)

// TestFolderSiblingUnique 测试同级目录不能重名，包括根目录.
func TestFolderSiblingUnique(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	a, err := env.svc.Folders.Create(ctx, alice, "docs", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := env.svc.Folders.Create(ctx, alice, "docs", nil); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("duplicate root: %v", err)
	}

	if _, err := env.svc.Folders.Create(ctx, bob, "docs", nil); err != nil {
		t.Errorf("other owner: %v", err)
	}

	if _, err := env.svc.Folders.Create(ctx, alice, "docs", &a.ID); err != nil {
		t.Errorf("same name nested: %v", err)
	}

	if _, err := env.svc.Folders.Create(ctx, alice, "docs", &a.ID); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("duplicate nested: %v", err)
	}

	for _, name := range []string{"", "a/b", ".."} {
		if _, err := env.svc.Folders.Create(ctx, alice, name, nil); !errors.Is(err, errs.ErrValidation) {
			t.Errorf("name %q: %v", name, err)
		}
	}

	if _, err := env.svc.Folders.Create(ctx, alice, "x", ptr("missing")); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("missing parent: %v", err)
	}
}

// TestFolderCreateSerialized 测试同一用户的目录创建串行执行，并发创建同名根目录只成功一次.
func TestFolderCreateSerialized(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	unlock, err := env.svc.Folders.locks.lock(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}

	const n = 8

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)

	for range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := env.svc.Folders.Create(ctx, alice, "inbox", nil)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				created++
			case !errors.Is(err, errs.ErrValidation):
				t.Errorf("Create: %v", err)
			}
		}()
	}

	time.Sleep(30 * time.Millisecond)

	var rows int64
	if err := env.db.Model(&model.Folder{}).Where("owner = ?", alice).Count(&rows).Error; err != nil {
		t.Fatal(err)
	}

	if rows != 0 {
		t.Fatalf("create ran while the owner lock was held: %d rows", rows)
	}

	unlock()
	wg.Wait()

	if created != 1 {
		t.Errorf("created = %d, want 1", created)
	}

	if err := env.db.Model(&model.Folder{}).Where("owner = ? AND parent_id IS NULL", alice).Count(&rows).Error; err != nil || rows != 1 {
		t.Errorf("root folders = %d, %v", rows, err)
	}

	if h := env.svc.Folders.locks.held(); h != 0 {
		t.Errorf("locks held = %d", h)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	unlock, err = env.svc.Folders.locks.lock(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	if _, err := env.svc.Folders.Create(canceled, alice, "later", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Create with canceled ctx = %v", err)
	}
}

// TestFolderMaxDepth 测试嵌套深度限制.
func TestFolderMaxDepth(t *testing.T) {
	env := newTestEnv(t, func(cfg *configs.AppConfig) { cfg.Folder.MaxDepth = 3 })
	ctx := context.Background()

	var parent *string

	for i := 0; i < 3; i++ {
		f, err := env.svc.Folders.Create(ctx, alice, "level", parent)
		if err != nil {
			t.Fatalf("Create level %d: %v", i, err)
		}

		parent = &f.ID
	}

	if _, err := env.svc.Folders.Create(ctx, alice, "level", parent); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("too deep: %v", err)
	}
}

// TestFolderMoveCycle 测试目录不能移动到自身或子孙目录.
func TestFolderMoveCycle(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	a, _ := env.svc.Folders.Create(ctx, alice, "a", nil)
	b, _ := env.svc.Folders.Create(ctx, alice, "b", &a.ID)
	c, _ := env.svc.Folders.Create(ctx, alice, "c", &b.ID)

	for _, target := range []string{a.ID, b.ID, c.ID} {
		if _, err := env.svc.Folders.Move(ctx, alice, a.ID, &target); !errors.Is(err, errs.ErrValidation) {
			t.Errorf("move a under %s: %v", target, err)
		}
	}

	moved, err := env.svc.Folders.Move(ctx, alice, c.ID, nil)
	if err != nil {
		t.Fatalf("move c to root: %v", err)
	}

	if moved.ParentID != nil {
		t.Errorf("parent = %v", *moved.ParentID)
	}

	if _, err := env.svc.Folders.Move(ctx, alice, a.ID, &c.ID); err != nil {
		t.Errorf("move a under c: %v", err)
	}

	if _, err := env.svc.Folders.Move(ctx, bob, a.ID, nil); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("foreign move: %v", err)
	}
}

// TestFolderContents 测试目录内容只包含直接子项.
func TestFolderContents(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	a, _ := env.svc.Folders.Create(ctx, alice, "a", nil)
	b, _ := env.svc.Folders.Create(ctx, alice, "b", &a.ID)
	env.upload(t, alice, "root", nil)
	env.upload(t, alice, "in a", &a.ID)
	env.upload(t, alice, "in b", &b.ID)

	root, err := env.svc.Folders.Contents(ctx, alice, nil)
	if err != nil {
		t.Fatalf("root: %v", err)
	}

	if root.Folder != nil || len(root.Folders) != 1 || len(root.Files) != 1 {
		t.Errorf("root = %d folders, %d files", len(root.Folders), len(root.Files))
	}

	inA, err := env.svc.Folders.Contents(ctx, alice, &a.ID)
	if err != nil {
		t.Fatalf("a: %v", err)
	}

	if inA.Folder.ID != a.ID || len(inA.Folders) != 1 || inA.Folders[0].ID != b.ID || len(inA.Files) != 1 {
		t.Errorf("a = %+v", inA)
	}

	if _, err := env.svc.Folders.Contents(ctx, bob, &a.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("foreign contents: %v", err)
	}
}

// TestFolderDelete 测试删除目录只软删除直接包含的文件，子目录文件回到根目录.
func TestFolderDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	a, _ := env.svc.Folders.Create(ctx, alice, "a", nil)
	b, _ := env.svc.Folders.Create(ctx, alice, "b", &a.ID)
	direct := env.upload(t, alice, "direct", &a.ID)
	nested := env.upload(t, alice, "nested", &b.ID)
	other := env.upload(t, alice, "other", nil)

	if err := env.svc.Folders.Delete(ctx, alice, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := env.svc.Files.Get(ctx, alice, direct.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("direct file still visible: %v", err)
	}

	trash, _ := env.svc.Trash.List(ctx, alice)
	if len(trash) != 1 || trash[0].ID != direct.ID {
		t.Errorf("trash = %+v", trash)
	}

	got, err := env.svc.Files.Get(ctx, alice, nested.ID)
	if err != nil {
		t.Fatalf("nested file: %v", err)
	}

	if got.FolderID != nil {
		t.Errorf("nested file folder = %v, want root", *got.FolderID)
	}

	if _, err := env.svc.Files.Get(ctx, alice, other.ID); err != nil {
		t.Errorf("unrelated file: %v", err)
	}

	var n int64
	env.db.Model(&model.Folder{}).Where("owner = ?", alice).Count(&n)

	if n != 0 {
		t.Errorf("folders left = %d", n)
	}

	if err := env.svc.Folders.Delete(ctx, alice, a.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}
