// Package types 定义 HTTP 请求与响应结构，校验规则使用 rule 标签.
package types

import (
	"time"

	"github.com/yeisme/filevault/pkg/internal/model"
)

// APIPrefix 业务接口前缀.
const APIPrefix = "/api/v1"

// FileResponse 文件信息.
type FileResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	MimeType    string    `json:"mime_type"`
	Folder      *string   `json:"folder"`
	UploadedAt  time.Time `json:"uploaded_at"`
	PreviewURL  string    `json:"preview_url,omitempty"`
	DownloadURL string    `json:"download_url"`
}

// NewFileResponse 由文件记录构造响应，只有已生成预览的文件带 preview_url.
func NewFileResponse(f *model.File) FileResponse {
	r := FileResponse{
		ID:          f.ID,
		Name:        f.Name,
		Size:        f.Size,
		MimeType:    f.MimeType,
		Folder:      f.FolderID,
		UploadedAt:  f.CreatedAt,
		DownloadURL: APIPrefix + "/files/" + f.ID + "/download",
	}

	if f.HasPreview() {
		r.PreviewURL = APIPrefix + "/files/" + f.ID + "/preview"
	}

	return r
}

// NewFileResponses 批量构造.
func NewFileResponses(files []model.File) []FileResponse {
	out := make([]FileResponse, 0, len(files))
	for i := range files {
		out = append(out, NewFileResponse(&files[i]))
	}

	return out
}

// ListFilesQuery 文件列表查询参数，Folder 为空表示根目录.
type ListFilesQuery struct {
	Folder string `form:"folder" rule:"omitempty,max=36"`
}

// MoveRequest 移动文件或目录，Folder 为 null 表示根目录.
type MoveRequest struct {
	Folder *string `json:"folder" rule:"omitempty,min=1,max=36"`
}

// BulkUploadResponse 批量上传部分失败时的响应.
type BulkUploadResponse struct {
	Files  []FileResponse `json:"files"`
	Failed []BulkFailure  `json:"failed"`
}

// BulkFailure 失败项.
type BulkFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}
