// Package model 定义持久化模型.
package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// File 用户文件元数据，内容保存在 blob 存储中.
type File struct {
	ID         string         `gorm:"primaryKey;size:36"             json:"id"`
	Owner      string         `gorm:"size:255;not null;index"        json:"owner"`
	FolderID   *string        `gorm:"size:36;index"                  json:"folder_id,omitempty"`
	Name       string         `gorm:"size:512;not null"              json:"name"`
	Size       int64          `gorm:"not null;default:0"             json:"size"`
	MimeType   string         `gorm:"size:255;index"                 json:"mime_type"`
	BlobKey    string         `gorm:"size:1024;not null"             json:"-"`
	PreviewKey *string        `gorm:"size:1024"                      json:"-"`
	DurationMS *int64         `json:"duration_ms,omitempty"`
	CreatedAt  time.Time      `gorm:"index"                          json:"uploaded_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index"                          json:"deleted_at,omitempty"`
}

// TableName 表名.
func (File) TableName() string { return "files" }

// IsImage 是否为图片类型.
func (f *File) IsImage() bool { return strings.HasPrefix(f.MimeType, "image/") }

// IsVideo 是否为视频类型.
func (f *File) IsVideo() bool { return strings.HasPrefix(f.MimeType, "video/") }

// HasPreview 是否已生成预览图.
func (f *File) HasPreview() bool { return f.PreviewKey != nil && *f.PreviewKey != "" }

// Trashed 是否处于回收站中.
func (f *File) Trashed() bool { return f.DeletedAt.Valid }
