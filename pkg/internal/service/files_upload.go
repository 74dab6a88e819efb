package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/yeisme/filevault/pkg/internal/errs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/storage/blob"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/queue"
	"github.com/yeisme/filevault/pkg/tracing"
)

// UploadItem 一个待上传的文件内容.
type UploadItem struct {
	Content  io.Reader
	Size     int64
	Filename string
	MimeType string
}

// UploadInput 单文件上传参数. Name 为空时使用 Filename.
type UploadInput struct {
	UploadItem

	Name     string
	FolderID *string
}

// BulkUploadInput 批量上传参数，Name 非空时作用于每一项.
type BulkUploadInput struct {
	Items    []UploadItem
	Name     string
	FolderID *string
}

// ItemFailure 批量上传中失败的一项.
type ItemFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// BulkError 批量上传部分失败，已写入的文件保留.
type BulkError struct {
	Failed []ItemFailure
}

func (e *BulkError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		names = append(names, f.Filename)
	}

	return fmt.Sprintf("bulk upload: %d item(s) failed: %s", len(e.Failed), strings.Join(names, ", "))
}

// Upload 校验、准入、写入内容并创建文件记录，成功后请求生成预览.
func (s *FileService) Upload(ctx context.Context, owner string, in UploadInput) (*model.File, error) {
	ctx, span := tracing.StartSpan(ctx, "service.Upload")
	defer span.End()

	if err := s.validateItem(in.UploadItem); err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, err
	}

	if err := s.checkFolder(ctx, owner, in.FolderID); err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, err
	}

	var f *model.File

	err := s.quota.WithAdmission(ctx, owner, in.Size, func(ctx context.Context) error {
		var err error
		f, err = s.store(ctx, owner, in.UploadItem, displayName(in.Name, in.Filename), in.FolderID)

		return err
	})
	if err != nil {
		s.countUpload(err)
		return nil, err
	}

	s.countUpload(nil)
	metrics.UploadedBytes.Add(float64(f.Size))
	s.requestPreview(ctx, f)

	return f, nil
}

// BulkUpload 批量上传. 配额按总大小一次性检查，部分失败时已写入的文件保留并返回 *BulkError.
func (s *FileService) BulkUpload(ctx context.Context, owner string, in BulkUploadInput) ([]model.File, error) {
	ctx, span := tracing.StartSpan(ctx, "service.BulkUpload")
	defer span.End()

	if len(in.Items) == 0 {
		return nil, errs.Validation("no files provided")
	}

	if limit := s.cfg.Upload.MaxBulkFiles; limit > 0 && len(in.Items) > limit {
		return nil, errs.Validation("too many files: %d > %d", len(in.Items), limit)
	}

	var total int64

	for _, it := range in.Items {
		if err := s.validateItem(it); err != nil {
			metrics.UploadsTotal.WithLabelValues(metrics.ResultRejected).Add(float64(len(in.Items)))
			return nil, fmt.Errorf("%s: %w", it.Filename, err)
		}

		total += it.Size
	}

	if err := s.checkFolder(ctx, owner, in.FolderID); err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.ResultRejected).Add(float64(len(in.Items)))
		return nil, err
	}

	created := make([]model.File, 0, len(in.Items))
	bulkErr := &BulkError{}

	err := s.quota.WithAdmission(ctx, owner, total, func(ctx context.Context) error {
		for _, it := range in.Items {
			f, err := s.store(ctx, owner, it, displayName(in.Name, it.Filename), in.FolderID)
			if err != nil {
				s.countUpload(err)
				s.logger.Warn().Err(err).Str("owner", owner).Str("filename", it.Filename).Msg("bulk item failed")
				bulkErr.Failed = append(bulkErr.Failed, ItemFailure{Filename: it.Filename, Error: err.Error()})

				continue
			}

			s.countUpload(nil)
			metrics.UploadedBytes.Add(float64(f.Size))
			created = append(created, *f)
		}

		return nil
	})
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.ResultRejected).Add(float64(len(in.Items)))
		return nil, err
	}

	for i := range created {
		s.requestPreview(ctx, &created[i])
	}

	if len(bulkErr.Failed) > 0 {
		return created, bulkErr
	}

	return created, nil
}

// validateItem 校验内容、大小与 MIME 类型.
func (s *FileService) validateItem(it UploadItem) error {
	if it.Content == nil {
		return errs.Validation("file content is required")
	}

	if it.Size < 0 {
		return errs.Validation("invalid file size")
	}

	if limit := s.cfg.Upload.MaxFileSizeBytes(); it.Size > limit {
		return errs.Validation("file too large: %d bytes exceeds limit of %d bytes", it.Size, limit)
	}

	if !MimeAllowed(s.cfg.Upload.AllowedMimeTypes, it.MimeType) {
		return errs.Validation("file type %q is not allowed", it.MimeType)
	}

	return nil
}

// checkFolder 目标目录必须存在且属于 owner，nil 表示根目录.
func (s *FileService) checkFolder(ctx context.Context, owner string, folderID *string) error {
	if folderID == nil {
		return nil
	}

	var n int64
	if err := s.dbx(ctx).Model(&model.Folder{}).Where("id = ? AND owner = ?", *folderID, owner).Count(&n).Error; err != nil {
		return fmt.Errorf("check folder: %w", err)
	}

	if n == 0 {
		return errs.Validation("folder %s does not exist", *folderID)
	}

	return nil
}

// store 写入内容并插入文件记录. 内容长度与声明不符时删除已写入的对象.
func (s *FileService) store(ctx context.Context, owner string, it UploadItem, name string, folderID *string) (*model.File, error) {
	id := uuid.NewString()
	counter := &countingReader{r: it.Content}

	locator, err := s.blobs.Put(ctx, blob.ContentKey(owner, id, it.Filename), counter, it.Size, it.MimeType)
	if err != nil {
		return nil, fmt.Errorf("put blob: %w", err)
	}

	if counter.n != it.Size {
		s.dropBlob(ctx, locator)
		return nil, errs.Validation("content length %d does not match declared size %d", counter.n, it.Size)
	}

	now := s.now()
	f := &model.File{
		ID:        id,
		Owner:     owner,
		FolderID:  folderID,
		Name:      name,
		Size:      it.Size,
		MimeType:  it.MimeType,
		BlobKey:   locator,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.dbx(ctx).Create(f).Error; err != nil {
		s.dropBlob(ctx, locator)
		return nil, fmt.Errorf("insert file: %w", err)
	}

	return f, nil
}

func (s *FileService) dropBlob(ctx context.Context, locator string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), locator); err != nil {
		s.logger.Warn().Err(err).Str("blob", locator).Msg("remove orphan blob failed")
	}
}

// requestPreview 请求异步生成预览，发布失败不影响上传结果.
func (s *FileService) requestPreview(ctx context.Context, f *model.File) {
	if !s.cfg.Preview.Enabled {
		return
	}

	msg, err := queue.NewPreviewRequested(queue.PreviewRequestedPayload{
		FileID:   f.ID,
		Owner:    f.Owner,
		MimeType: f.MimeType,
	}, queue.WithProducer("upload"), queue.WithSpan(ctx))
	s.publish(ctx, queue.TopicPreviewRequested, msg, err)
}

func (s *FileService) countUpload(err error) {
	switch {
	case err == nil:
		metrics.UploadsTotal.WithLabelValues(metrics.ResultOK).Inc()
	case errs.KindOf(err) == errs.KindInternal:
		metrics.UploadsTotal.WithLabelValues(metrics.ResultError).Inc()
	default:
		metrics.UploadsTotal.WithLabelValues(metrics.ResultRejected).Inc()
	}
}

// MimeAllowed 判断 mimeType 是否在允许列表中，支持 "video/*" 形式的通配.
func MimeAllowed(allowed []string, mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" {
		return false
	}

	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))

		switch {
		case a == "*/*" || a == mimeType:
			return true
		case strings.HasSuffix(a, "/*") && strings.HasPrefix(mimeType, strings.TrimSuffix(a, "*")):
			return true
		}
	}

	return false
}

func displayName(name, filename string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}

	if base := path.Base(strings.ReplaceAll(filename, "\\", "/")); base != "." && base != "/" {
		return base
	}

	return "untitled"
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)

	return n, err
}
