package service

import (
	"context"
	"fmt"

	"github.com/yeisme/filevault/pkg/internal/model"
)

// StatsService 按 MIME 类型统计用户未删除的文件.
type StatsService struct{ *FileService }

// TypeCount 某类型的文件数.
type TypeCount struct {
	MimeType string `json:"mime_type"`
	Count    int64  `json:"count"`
}

// TypeSize 某类型的文件总大小.
type TypeSize struct {
	MimeType  string `json:"mime_type"`
	TotalSize int64  `json:"total_size"`
}

// TotalStorage 总占用.
type TotalStorage struct {
	TotalSize int64 `json:"total_size"`
}

// CountByType 各类型文件数，按数量倒序.
func (s *StatsService) CountByType(ctx context.Context, owner string) ([]TypeCount, error) {
	out := []TypeCount{}

	err := s.dbx(ctx).Model(&model.File{}).
		Select("mime_type, COUNT(*) AS count").
		Where("owner = ?", owner).
		Group("mime_type").
		Order("count DESC, mime_type").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("count by type: %w", err)
	}

	return out, nil
}

// TotalStorage 已用存储总量.
func (s *StatsService) TotalStorage(ctx context.Context, owner string) (TotalStorage, error) {
	used, _, err := s.quota.Usage(ctx, owner)
	if err != nil {
		return TotalStorage{}, err
	}

	return TotalStorage{TotalSize: used}, nil
}

// StorageByType 各类型占用，按大小倒序.
func (s *StatsService) StorageByType(ctx context.Context, owner string) ([]TypeSize, error) {
	out := []TypeSize{}

	err := s.dbx(ctx).Model(&model.File{}).
		Select("mime_type, COALESCE(SUM(size), 0) AS total_size").
		Where("owner = ?", owner).
		Group("mime_type").
		Order("total_size DESC, mime_type").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("storage by type: %w", err)
	}

	return out, nil
}

// Usage 已用空间与配额，limit <= 0 表示不限制.
func (s *StatsService) Usage(ctx context.Context, owner string) (used, limit int64, err error) {
	return s.quota.Usage(ctx, owner)
}
