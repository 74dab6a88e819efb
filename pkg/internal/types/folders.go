package types

import (
	"time"

	"github.com/yeisme/filevault/pkg/internal/model"
)

// CreateFolderRequest 创建目录，Parent 为空表示根目录.
type CreateFolderRequest struct {
	Name   string  `json:"name"   rule:"foldername"`
	Parent *string `json:"parent" rule:"omitempty,min=1,max=36"`
}

// FolderResponse 目录信息.
type FolderResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Parent    *string   `json:"parent"`
	CreatedAt time.Time `json:"created_at"`
}

// FolderContentsResponse 目录的直接子目录与文件，Folder 为空表示根目录.
type FolderContentsResponse struct {
	Folder  *FolderResponse  `json:"folder"`
	Folders []FolderResponse `json:"folders"`
	Files   []FileResponse   `json:"files"`
}

// NewFolderResponse 由目录记录构造响应.
func NewFolderResponse(f *model.Folder) FolderResponse {
	return FolderResponse{ID: f.ID, Name: f.Name, Parent: f.ParentID, CreatedAt: f.CreatedAt}
}

// NewFolderResponses 批量构造.
func NewFolderResponses(folders []model.Folder) []FolderResponse {
	out := make([]FolderResponse, 0, len(folders))
	for i := range folders {
		out = append(out, NewFolderResponse(&folders[i]))
	}

	return out
}
