package types

import (
	"time"

	"github.com/yeisme/filevault/pkg/internal/model"
)

// TrashItem 回收站中的文件.
type TrashItem struct {
	FileResponse

	DeletedAt time.Time `json:"deleted_at"`
}

// NewTrashItems 由已删除的文件构造响应.
func NewTrashItems(files []model.File) []TrashItem {
	out := make([]TrashItem, 0, len(files))
	for i := range files {
		out = append(out, TrashItem{FileResponse: NewFileResponse(&files[i]), DeletedAt: files[i].DeletedAt.Time})
	}

	return out
}

// EmptyTrashResponse 清空回收站结果.
type EmptyTrashResponse struct {
	Purged int    `json:"purged"`
	Error  string `json:"error,omitempty"`
}
