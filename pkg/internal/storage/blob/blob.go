// Package blob 定义文件内容存储接口及 local、memory 两种实现，S3 实现位于 storage/s3.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrNotFound 对象不存在.
var ErrNotFound = errors.New("blob not found")

// Store 内容存储. Put 返回的定位符用于后续 Get/Delete；Delete 对不存在的对象返回 nil.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Get(ctx context.Context, locator string) (io.ReadCloser, error)
	Delete(ctx context.Context, locator string) error
}

const (
	contentPrefix = "content"
	previewPrefix = "previews"
	maxExtLen     = 16
)

// shard 以 owner 的 xxhash 作为两级目录，避免单目录下对象过多.
func shard(owner string) string {
	h := fmt.Sprintf("%016x", xxhash.Sum64String(owner))

	return path.Join(h[0:2], h[2:4])
}

// ContentKey 原始文件的对象键：content/{h[0:2]}/{h[2:4]}/{id}{ext}.
func ContentKey(owner, id, filename string) string {
	return path.Join(contentPrefix, shard(owner), id+safeExt(filename))
}

// PreviewKey 预览图的对象键，同一文件始终得到相同的键.
func PreviewKey(owner, id string) string {
	return path.Join(previewPrefix, shard(owner), id+".jpeg")
}

// safeExt 返回小写扩展名，只保留字母数字.
func safeExt(filename string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}

	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}

	return ext
}

// ValidKey 校验对象键不含路径穿越.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}

	return path.Clean(key) == key && !strings.HasPrefix(key, "../") && key != ".."
}
