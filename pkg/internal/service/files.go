package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/internal/errs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/storage/blob"
)

// Get 返回 owner 未删除的文件.
func (s *FileService) Get(ctx context.Context, owner, id string) (*model.File, error) {
	var f model.File

	err := s.dbx(ctx).Where("id = ? AND owner = ?", id, owner).Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("file %s not found", id)
	}

	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	return &f, nil
}

// List 列出根目录或指定目录下未删除的文件，按上传时间倒序.
func (s *FileService) List(ctx context.Context, owner string, folderID *string) ([]model.File, error) {
	if err := s.checkFolder(ctx, owner, folderID); err != nil {
		return nil, err
	}

	q := s.dbx(ctx).Where("owner = ?", owner)
	if folderID == nil {
		q = q.Where("folder_id IS NULL")
	} else {
		q = q.Where("folder_id = ?", *folderID)
	}

	var files []model.File
	if err := q.Order("created_at DESC").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	return files, nil
}

// Open 打开文件原始内容，调用方负责关闭.
func (s *FileService) Open(ctx context.Context, owner, id string) (*model.File, io.ReadCloser, error) {
	f, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.openBlob(ctx, f.BlobKey)
	if err != nil {
		return nil, nil, err
	}

	return f, rc, nil
}

// OpenPreview 打开文件预览图，尚未生成时返回 NotFound.
func (s *FileService) OpenPreview(ctx context.Context, owner, id string) (*model.File, io.ReadCloser, error) {
	f, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, nil, err
	}

	if !f.HasPreview() {
		return nil, nil, errs.NotFound("file %s has no preview", id)
	}

	rc, err := s.openBlob(ctx, *f.PreviewKey)
	if err != nil {
		return nil, nil, err
	}

	return f, rc, nil
}

func (s *FileService) openBlob(ctx context.Context, locator string) (io.ReadCloser, error) {
	rc, err := s.blobs.Get(ctx, locator)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, errs.NotFound("content not found")
	}

	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}

	return rc, nil
}

// Move 将文件移动到目录，folderID 为 nil 表示根目录.
func (s *FileService) Move(ctx context.Context, owner, id string, folderID *string) (*model.File, error) {
	f, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkFolder(ctx, owner, folderID); err != nil {
		return nil, err
	}

	now := s.now()

	err = s.dbx(ctx).Model(&model.File{}).Where("id = ?", f.ID).
		Updates(map[string]any{"folder_id": folderID, "updated_at": now}).Error
	if err != nil {
		return nil, fmt.Errorf("move file: %w", err)
	}

	f.FolderID = folderID
	f.UpdatedAt = now

	return f, nil
}

// Delete 将文件移入回收站.
func (s *FileService) Delete(ctx context.Context, owner, id string) error {
	res := s.dbx(ctx).Model(&model.File{}).
		Where("id = ? AND owner = ?", id, owner).
		Update("deleted_at", s.now())
	if res.Error != nil {
		return fmt.Errorf("delete file: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return errs.NotFound("file %s not found", id)
	}

	return nil
}
