package handle

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/errs"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/types"
)

const (
	multipartOverhead  = 1 << 20
	previewContentType = "image/jpeg"
	previewCacheHeader = "private, max-age=3600"
	defaultContentType = "application/octet-stream"
)

// Upload 上传单个文件.
//
//	@Summary		上传文件
//	@Description	multipart 上传单个文件，受类型、大小与用户配额限制；图片与视频会异步生成预览
//	@Tags			文件
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file				true	"文件内容"
//	@Param			name	formData	string				false	"显示名称，默认取文件名"
//	@Param			folder	formData	string				false	"目标目录 ID，缺省为根目录"
//	@Success		201		{object}	types.FileResponse	"上传成功"
//	@Failure		400		{object}	errs.Body			"参数错误"
//	@Failure		403		{object}	errs.Body			"超出配额"
//	@Router			/api/v1/files [post]
func (h *Handlers) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	h.limitBody(c, 1)

	fh, err := c.FormFile("file")
	if err != nil {
		h.writeError(c, errs.Validation("missing multipart field \"file\": %v", err))
		return
	}

	item, err := openItem(fh)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer closeItem(item)

	f, err := h.svc.Files.Upload(c.Request.Context(), user, service.UploadInput{
		UploadItem: item,
		Name:       strings.TrimSpace(c.PostForm("name")),
		FolderID:   optional(c.PostForm("folder")),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.NewFileResponse(f))
}

// BulkUpload 批量上传.
//
//	@Summary		批量上传文件
//	@Description	一次上传多个文件，配额按总大小检查；部分文件失败时返回 207 与失败列表
//	@Tags			文件
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			files	formData	file						true	"文件内容，可重复"
//	@Param			name	formData	string						false	"显示名称，作用于每个文件"
//	@Param			folder	formData	string						false	"目标目录 ID"
//	@Success		201		{array}		types.FileResponse			"全部成功"
//	@Success		207		{object}	types.BulkUploadResponse	"部分成功"
//	@Failure		400		{object}	errs.Body					"参数错误"
//	@Failure		403		{object}	errs.Body					"超出配额"
//	@Router			/api/v1/files/bulk [post]
func (h *Handlers) BulkUpload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	h.limitBody(c, int64(max(h.cfg.Upload.MaxBulkFiles, 1)))

	form, err := c.MultipartForm()
	if err != nil {
		h.writeError(c, errs.Validation("invalid multipart form: %v", err))
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		h.writeError(c, errs.Validation("missing multipart field \"files\""))
		return
	}

	items := make([]service.UploadItem, 0, len(headers))

	defer func() {
		for _, it := range items {
			closeItem(it)
		}
	}()

	for _, fh := range headers {
		item, err := openItem(fh)
		if err != nil {
			h.writeError(c, err)
			return
		}

		items = append(items, item)
	}

	files, err := h.svc.Files.BulkUpload(c.Request.Context(), user, service.BulkUploadInput{
		Items:    items,
		Name:     strings.TrimSpace(c.PostForm("name")),
		FolderID: optional(c.PostForm("folder")),
	})

	var bulkErr *service.BulkError
	if errors.As(err, &bulkErr) {
		resp := types.BulkUploadResponse{Files: types.NewFileResponses(files)}
		for _, f := range bulkErr.Failed {
			resp.Failed = append(resp.Failed, types.BulkFailure{Filename: f.Filename, Error: f.Error})
		}

		c.JSON(http.StatusMultiStatus, resp)

		return
	}

	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.NewFileResponses(files))
}

// ListFiles 列出根目录或指定目录下的文件.
//
//	@Summary		文件列表
//	@Tags			文件
//	@Produce		json
//	@Param			folder	query		string				false	"目录 ID，缺省为根目录"
//	@Success		200		{array}		types.FileResponse	"文件列表"
//	@Failure		400		{object}	errs.Body			"参数错误"
//	@Router			/api/v1/files [get]
func (h *Handlers) ListFiles(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var q types.ListFilesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeError(c, errs.Validation("invalid query: %v", err))
		return
	}

	files, err := h.svc.Files.List(c.Request.Context(), user, optional(q.Folder))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewFileResponses(files))
}

// GetFile 获取文件信息.
//
//	@Summary		文件信息
//	@Tags			文件
//	@Produce		json
//	@Param			id	path		string				true	"文件 ID"
//	@Success		200	{object}	types.FileResponse	"文件信息"
//	@Failure		404	{object}	errs.Body			"不存在"
//	@Router			/api/v1/files/{id} [get]
func (h *Handlers) GetFile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	f, err := h.svc.Files.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewFileResponse(f))
}

// Download 下载原文件.
//
//	@Summary		下载文件
//	@Tags			文件
//	@Produce		octet-stream
//	@Param			id	path		string		true	"文件 ID"
//	@Success		200	{file}		binary		"文件内容"
//	@Failure		404	{object}	errs.Body	"不存在"
//	@Router			/api/v1/files/{id}/download [get]
func (h *Handlers) Download(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	f, rc, err := h.svc.Files.Open(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, f.Size, contentType(f.MimeType), rc, map[string]string{
		"Content-Disposition": attachment(f.Name),
	})
}

// Preview 返回 JPEG 预览图.
//
//	@Summary		预览图
//	@Tags			文件
//	@Produce		jpeg
//	@Param			id	path		string		true	"文件 ID"
//	@Success		200	{file}		binary		"JPEG 预览"
//	@Failure		404	{object}	errs.Body	"文件或预览不存在"
//	@Router			/api/v1/files/{id}/preview [get]
func (h *Handlers) Preview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	_, rc, err := h.svc.Files.OpenPreview(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, previewContentType, rc, map[string]string{
		"Cache-Control": previewCacheHeader,
	})
}

// MoveFile 移动文件到其他目录.
//
//	@Summary		移动文件
//	@Tags			文件
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"文件 ID"
//	@Param			body	body		types.MoveRequest	true	"目标目录，null 表示根目录"
//	@Success		200		{object}	types.FileResponse	"移动后的文件"
//	@Failure		400		{object}	errs.Body			"参数错误"
//	@Failure		404		{object}	errs.Body			"不存在"
//	@Router			/api/v1/files/{id}/move [post]
func (h *Handlers) MoveFile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.MoveRequest
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}

	f, err := h.svc.Files.Move(c.Request.Context(), user, c.Param("id"), req.Folder)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewFileResponse(f))
}

// DeleteFile 软删除文件，移入回收站.
//
//	@Summary		删除文件
//	@Tags			文件
//	@Param			id	path	string	true	"文件 ID"
//	@Success		204	"已移入回收站"
//	@Failure		404	{object}	errs.Body	"不存在"
//	@Router			/api/v1/files/{id} [delete]
func (h *Handlers) DeleteFile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.svc.Files.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// limitBody 按单文件上限与文件个数限制请求体大小.
func (h *Handlers) limitBody(c *gin.Context, files int64) {
	if per := h.cfg.Upload.MaxFileSizeBytes(); per > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, per*files+multipartOverhead)
	}
}

// openItem 打开上传的文件. MIME 类型取 Content-Type 的主体部分，缺失时按扩展名推断.
func openItem(fh *multipart.FileHeader) (service.UploadItem, error) {
	f, err := fh.Open()
	if err != nil {
		return service.UploadItem{}, errs.Validation("read %s: %v", fh.Filename, err)
	}

	return service.UploadItem{
		Content:  f,
		Size:     fh.Size,
		Filename: fh.Filename,
		MimeType: detectMime(fh),
	}, nil
}

func closeItem(it service.UploadItem) {
	if f, ok := it.Content.(multipart.File); ok {
		_ = f.Close()
	}
}

func detectMime(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil && mt != defaultContentType {
			return mt
		}
	}

	if ext := filepath.Ext(fh.Filename); ext != "" {
		if mt, _, err := mime.ParseMediaType(mime.TypeByExtension(ext)); err == nil {
			return mt
		}
	}

	return defaultContentType
}

func contentType(mimeType string) string {
	if mimeType == "" {
		return defaultContentType
	}

	return mimeType
}

// attachment 构造 Content-Disposition，非 ASCII 文件名额外带 RFC 5987 编码.
func attachment(name string) string {
	ascii := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}

		return r
	}, name)

	v := fmt.Sprintf("attachment; filename=%q", ascii)
	if ascii != name {
		v += "; filename*=UTF-8''" + url.PathEscape(name)
	}

	return v
}

// optional 空字符串视为未指定.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	return &s
}
