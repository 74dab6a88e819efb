package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/internal/errs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/queue"
)

// 永久删除的阶段，用于记录失败位置.
const (
	StageBlob    = "blob"
	StagePreview = "preview"
	StageRow     = "row"
)

// 永久删除的触发来源.
const (
	PurgeSourceTrash = "trash"
	PurgeSourceSweep = "sweep"
)

// TrashService 回收站.
type TrashService struct{ *FileService }

// PurgeError 永久删除某一阶段失败.
type PurgeError struct {
	FileID string
	Stage  string
	Err    error
}

func (e *PurgeError) Error() string {
	return fmt.Sprintf("purge %s at %s: %v", e.FileID, e.Stage, e.Err)
}

func (e *PurgeError) Unwrap() error { return e.Err }

// List 列出回收站中的文件，最近删除的在前.
func (t *TrashService) List(ctx context.Context, owner string) ([]model.File, error) {
	var files []model.File

	err := t.dbx(ctx).Unscoped().
		Where("owner = ? AND deleted_at IS NOT NULL", owner).
		Order("deleted_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list trash: %w", err)
	}

	return files, nil
}

// Restore 在保留期内恢复文件. 恢复同样受配额限制，原目录已删除时回到根目录.
func (t *TrashService) Restore(ctx context.Context, owner, id string) (*model.File, error) {
	f, err := t.getTrashed(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	days := t.cfg.Retention.Days
	if f.DeletedAt.Time.Before(t.now().Add(-retention(days))) {
		return nil, errs.RestoreWindowClosed(days)
	}

	err = t.quota.WithAdmission(ctx, owner, f.Size, func(ctx context.Context) error {
		if f.FolderID != nil {
			if err := t.checkFolder(ctx, owner, f.FolderID); err != nil {
				if !errors.Is(err, errs.ErrValidation) {
					return err
				}

				f.FolderID = nil
			}
		}

		now := t.now()

		err := t.dbx(ctx).Unscoped().Model(&model.File{}).Where("id = ?", f.ID).
			Updates(map[string]any{"deleted_at": nil, "folder_id": f.FolderID, "updated_at": now}).Error
		if err != nil {
			return fmt.Errorf("restore file: %w", err)
		}

		f.DeletedAt = gorm.DeletedAt{}
		f.UpdatedAt = now

		return nil
	})
	if err != nil {
		return nil, err
	}

	return f, nil
}

// Purge 永久删除回收站中的文件及其内容.
func (t *TrashService) Purge(ctx context.Context, owner, id string) error {
	f, err := t.getTrashed(ctx, owner, id)
	if err != nil {
		return err
	}

	return t.purge(ctx, f, PurgeSourceTrash)
}

// Empty 清空回收站，返回删除数量. 单个文件失败不影响其余文件.
func (t *TrashService) Empty(ctx context.Context, owner string) (int, error) {
	files, err := t.List(ctx, owner)
	if err != nil {
		return 0, err
	}

	var (
		purged  int
		errList []error
	)

	for i := range files {
		if err := t.purge(ctx, &files[i], PurgeSourceTrash); err != nil {
			errList = append(errList, err)
			continue
		}

		purged++
	}

	return purged, errors.Join(errList...)
}

func (t *TrashService) getTrashed(ctx context.Context, owner, id string) (*model.File, error) {
	var f model.File

	err := t.dbx(ctx).Unscoped().
		Where("id = ? AND owner = ? AND deleted_at IS NOT NULL", id, owner).
		Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("file %s not found in trash", id)
	}

	if err != nil {
		return nil, fmt.Errorf("get trashed file: %w", err)
	}

	return &f, nil
}

// purge 依次删除原始内容、预览图，再在事务中删除链接与记录. 不存在的对象视为已删除.
func (s *FileService) purge(ctx context.Context, f *model.File, source string) error {
	if err := s.blobs.Delete(ctx, f.BlobKey); err != nil {
		return &PurgeError{FileID: f.ID, Stage: StageBlob, Err: err}
	}

	if f.HasPreview() {
		if err := s.blobs.Delete(ctx, *f.PreviewKey); err != nil {
			return &PurgeError{FileID: f.ID, Stage: StagePreview, Err: err}
		}
	}

	err := s.dbx(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", f.ID).Delete(&model.SharedLink{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&model.File{}, "id = ?", f.ID).Error
	})
	if err != nil {
		return &PurgeError{FileID: f.ID, Stage: StageRow, Err: err}
	}

	msg, err := queue.NewFilePurged(queue.FilePurgedPayload{FileID: f.ID, Owner: f.Owner, Source: source}, queue.WithSpan(ctx))
	s.publish(ctx, queue.TopicFilePurged, msg, err)

	return nil
}

func retention(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
