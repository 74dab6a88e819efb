// Package s3 处理S3存储操作，基于 MinIO 客户端实现 blob.Store.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/storage/blob"
	nlog "github.com/yeisme/filevault/pkg/log"
)

// Client 包装 MinIO 客户端.
type Client struct {
	*minio.Client

	bucket   string
	partSize uint64
}

var _ blob.Store = (*Client)(nil)

// New 初始化 MinIO 客户端，按配置在 bucket 不存在时创建.
func New(ctx context.Context, cfg *configs.S3Config) (*Client, error) {
	endpoint, secure := cfg.Target()

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("filevault", configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.BucketName, err)
	}

	if !exists {
		if !cfg.AutoCreate {
			return nil, fmt.Errorf("bucket %s does not exist", cfg.BucketName)
		}

		if err := cli.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.BucketName, err)
		}

		nlog.Logger().Info().Str("bucket", cfg.BucketName).Msg("bucket created")
	}

	nlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("s3 connected")

	return &Client{Client: cli, bucket: cfg.BucketName, partSize: cfg.PartSize()}, nil
}

// Bucket 返回存储桶名称.
func (c *Client) Bucket() string { return c.bucket }

// Put 上传对象. size 未知时传 -1，由 minio 分片上传.
func (c *Client) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if !blob.ValidKey(key) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}

	if size < 0 {
		size = -1
	}

	if _, err := c.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType, PartSize: c.partSize}); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return key, nil
}

// Get 读取对象；minio 的 GetObject 是惰性的，这里先 Stat 以便及时返回 ErrNotFound.
func (c *Client) Get(ctx context.Context, locator string) (io.ReadCloser, error) {
	obj, err := c.GetObject(ctx, c.bucket, locator, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapErr(locator, err)
	}

	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, mapErr(locator, err)
	}

	return obj, nil
}

// Delete 删除对象，对象不存在时 S3 同样返回成功.
func (c *Client) Delete(ctx context.Context, locator string) error {
	if err := c.RemoveObject(ctx, c.bucket, locator, minio.RemoveObjectOptions{}); err != nil {
		if errors.Is(mapErr(locator, err), blob.ErrNotFound) {
			return nil
		}

		return fmt.Errorf("remove object %s: %w", locator, err)
	}

	return nil
}

func mapErr(key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchObject" {
		return fmt.Errorf("%s: %w", key, blob.ErrNotFound)
	}

	return fmt.Errorf("get object %s: %w", key, err)
}

// HealthCheck 通过检查存储桶验证连接.
func (c *Client) HealthCheck(ctx context.Context) error {
	ok, err := c.BucketExists(ctx, c.bucket)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("bucket %s missing", c.bucket)
	}

	return nil
}

// Close 关闭 S3 客户端连接（无实际操作，接口兼容）.
func (c *Client) Close() error {
	return nil
}
