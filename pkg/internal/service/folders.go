package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/internal/errs"
	"github.com/yeisme/filevault/pkg/internal/model"
)

const maxFolderName = 255

// FolderService 目录管理.
// 根目录下 parent_id 为 NULL，唯一索引无法约束同名，因此同一用户的创建与移动串行执行.
type FolderService struct {
	*FileService

	locks *ownerLocks
}

// FolderContents 目录的直接子目录与文件，Folder 为空表示根目录.
type FolderContents struct {
	Folder  *model.Folder
	Folders []model.Folder
	Files   []model.File
}

// Create 在 parentID 下创建目录，同级目录不能重名.
func (s *FolderService) Create(ctx context.Context, owner, name string, parentID *string) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if err := validFolderName(name); err != nil {
		return nil, err
	}

	if parentID != nil {
		if _, err := s.getFolder(ctx, owner, *parentID); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return nil, errs.Validation("parent folder %s does not exist", *parentID)
			}

			return nil, err
		}

		depth, err := s.depth(ctx, *parentID)
		if err != nil {
			return nil, err
		}

		if depth+1 > s.cfg.Folder.MaxDepth {
			return nil, errs.Validation("folder nesting exceeds %d levels", s.cfg.Folder.MaxDepth)
		}
	}

	unlock, err := s.locks.lock(ctx, owner)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.checkSibling(ctx, owner, parentID, name, ""); err != nil {
		return nil, err
	}

	f := &model.Folder{
		ID:        uuid.NewString(),
		Owner:     owner,
		ParentID:  parentID,
		Name:      name,
		CreatedAt: s.now(),
	}

	if err := s.dbx(ctx).Create(f).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.Validation("folder %q already exists", name)
		}

		return nil, fmt.Errorf("create folder: %w", err)
	}

	return f, nil
}

// Contents 返回目录的直接子目录与未删除文件，folderID 为 nil 表示根目录.
func (s *FolderService) Contents(ctx context.Context, owner string, folderID *string) (*FolderContents, error) {
	out := &FolderContents{}

	sub := s.dbx(ctx).Where("owner = ?", owner)
	files := s.dbx(ctx).Where("owner = ?", owner)

	if folderID == nil {
		sub = sub.Where("parent_id IS NULL")
		files = files.Where("folder_id IS NULL")
	} else {
		f, err := s.getFolder(ctx, owner, *folderID)
		if err != nil {
			return nil, err
		}

		out.Folder = f
		sub = sub.Where("parent_id = ?", f.ID)
		files = files.Where("folder_id = ?", f.ID)
	}

	if err := sub.Order("name").Find(&out.Folders).Error; err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	if err := files.Order("created_at DESC").Find(&out.Files).Error; err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	return out, nil
}

// Move 修改目录的父目录，不能移动到自身或其子孙目录下.
func (s *FolderService) Move(ctx context.Context, owner, id string, parentID *string) (*model.Folder, error) {
	unlock, err := s.locks.lock(ctx, owner)
	if err != nil {
		return nil, err
	}
	defer unlock()

	f, err := s.getFolder(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		if *parentID == f.ID {
			return nil, errs.Validation("folder cannot be moved into itself")
		}

		if _, err := s.getFolder(ctx, owner, *parentID); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return nil, errs.Validation("parent folder %s does not exist", *parentID)
			}

			return nil, err
		}

		under, err := s.isDescendant(ctx, *parentID, f.ID)
		if err != nil {
			return nil, err
		}

		if under {
			return nil, errs.Validation("folder cannot be moved into its own subfolder")
		}
	}

	if err := s.checkSibling(ctx, owner, parentID, f.Name, f.ID); err != nil {
		return nil, err
	}

	if err := s.dbx(ctx).Model(f).Update("parent_id", parentID).Error; err != nil {
		return nil, fmt.Errorf("move folder: %w", err)
	}

	f.ParentID = parentID

	return f, nil
}

// Delete 删除目录. 直接包含的文件移入回收站，子孙目录一并删除，子孙目录中的文件回到根目录.
func (s *FolderService) Delete(ctx context.Context, owner, id string) error {
	f, err := s.getFolder(ctx, owner, id)
	if err != nil {
		return err
	}

	now := s.now()

	return s.dbx(ctx).Transaction(func(tx *gorm.DB) error {
		descendants, err := s.collectDescendants(tx, f.ID)
		if err != nil {
			return err
		}

		if err := tx.Model(&model.File{}).
			Where("owner = ? AND folder_id = ?", owner, f.ID).
			Updates(map[string]any{"deleted_at": now, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("trash folder files: %w", err)
		}

		if len(descendants) > 0 {
			if err := tx.Unscoped().Model(&model.File{}).
				Where("folder_id IN ?", descendants).
				Updates(map[string]any{"folder_id": nil, "updated_at": now}).Error; err != nil {
				return fmt.Errorf("detach subfolder files: %w", err)
			}

			if err := tx.Where("id IN ?", descendants).Delete(&model.Folder{}).Error; err != nil {
				return fmt.Errorf("delete subfolders: %w", err)
			}
		}

		if err := tx.Delete(&model.Folder{}, "id = ?", f.ID).Error; err != nil {
			return fmt.Errorf("delete folder: %w", err)
		}

		return nil
	})
}

func (s *FolderService) getFolder(ctx context.Context, owner, id string) (*model.Folder, error) {
	var f model.Folder

	err := s.dbx(ctx).Where("id = ? AND owner = ?", id, owner).Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("folder %s not found", id)
	}

	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return &f, nil
}

// checkSibling 同一父目录下不能存在同名目录，except 为移动中的目录自身.
func (s *FolderService) checkSibling(ctx context.Context, owner string, parentID *string, name, except string) error {
	q := s.dbx(ctx).Model(&model.Folder{}).Where("owner = ? AND name = ?", owner, name)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}

	if except != "" {
		q = q.Where("id <> ?", except)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("check sibling: %w", err)
	}

	if n > 0 {
		return errs.Validation("folder %q already exists", name)
	}

	return nil
}

// depth 返回目录到根的层数，根目录下的目录为 1.
func (s *FolderService) depth(ctx context.Context, id string) (int, error) {
	d := 0
	cur := &id

	for cur != nil {
		d++
		if d > s.cfg.Folder.MaxDepth {
			return d, nil
		}

		parent, err := s.parentOf(ctx, *cur)
		if err != nil {
			return 0, err
		}

		cur = parent
	}

	return d, nil
}

// isDescendant 判断 id 是否为 ancestor 自身或其子孙，沿父引用向上最多走 max_depth 层.
func (s *FolderService) isDescendant(ctx context.Context, id, ancestor string) (bool, error) {
	cur := &id

	for i := 0; cur != nil; i++ {
		if *cur == ancestor {
			return true, nil
		}

		if i >= s.cfg.Folder.MaxDepth {
			return false, errs.Validation("folder nesting exceeds %d levels", s.cfg.Folder.MaxDepth)
		}

		parent, err := s.parentOf(ctx, *cur)
		if err != nil {
			return false, err
		}

		cur = parent
	}

	return false, nil
}

func (s *FolderService) parentOf(ctx context.Context, id string) (*string, error) {
	var f model.Folder

	err := s.dbx(ctx).Select("parent_id").Where("id = ?", id).Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("load parent: %w", err)
	}

	return f.ParentID, nil
}

// collectDescendants 按层收集全部子孙目录 ID.
func (s *FolderService) collectDescendants(tx *gorm.DB, root string) ([]string, error) {
	var all []string

	level := []string{root}

	for depth := 0; len(level) > 0 && depth < s.cfg.Folder.MaxDepth; depth++ {
		var next []string
		if err := tx.Model(&model.Folder{}).Where("parent_id IN ?", level).Pluck("id", &next).Error; err != nil {
			return nil, fmt.Errorf("collect subfolders: %w", err)
		}

		all = append(all, next...)
		level = next
	}

	return all, nil
}

func validFolderName(name string) error {
	switch {
	case name == "":
		return errs.Validation("folder name is required")
	case utf8.RuneCountInString(name) > maxFolderName:
		return errs.Validation("folder name is too long")
	case strings.ContainsAny(name, "/\\"), name == ".", name == "..":
		return errs.Validation("invalid folder name %q", name)
	}

	return nil
}
