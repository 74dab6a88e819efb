// Package storage 聚合数据库、对象存储、KV 与消息队列客户端.
//
// Example:
//
// 初始化
//
//	ctx := context.Background()
//	mgr, err := storage.Init(ctx, configs.GetConfig(), prometheus.DefaultRegisterer)
//	if err != nil {
//	    // 处理错误
//	}
//	defer mgr.Close()
//
// 获取存储客户端
//
//	blobStore := mgr.GetBlobStore()
//	dbClient := mgr.GetDBClient()
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/storage/blob"
	dbc "github.com/yeisme/filevault/pkg/internal/storage/db"
	kvc "github.com/yeisme/filevault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/filevault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/filevault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/filevault/pkg/log"
)

// Component 可做健康检查的组件名.
type Component string

const (
	ComponentDB   Component = "db"
	ComponentS3   Component = "s3"
	ComponentBlob Component = "blob"
	ComponentKV   Component = "kv"
	ComponentMQ   Component = "mq"
)

// ErrNotConfigured 组件未启用或未初始化.
var ErrNotConfigured = errors.New("component not configured")

// Manager 聚合所有存储资源.
type Manager struct {
	DB   *dbc.Client
	S3   *s3c.Client // 仅当 blob.type=s3 时非空
	Blob blob.Store
	KV   *kvc.Client
	MQ   *mqc.Client
}

// Init 按配置初始化全部存储资源, 任一失败时关闭已打开的资源.
// reg 非空时为 gorm 与 watermill 注册 prometheus 指标.
func Init(ctx context.Context, cfg *configs.AppConfig, reg prometheus.Registerer) (m *Manager, err error) {
	m = &Manager{}

	defer func() {
		if err != nil {
			_ = m.Close()
		}
	}()

	if m.DB, err = dbc.New(ctx, &cfg.DB); err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	if reg != nil {
		if err = m.DB.RegisterGORMMetrics(cfg.DB.Database, cfg.Metrics.CollectInterval); err != nil {
			return nil, err
		}
	}

	if m.Blob, err = openBlob(ctx, cfg, m); err != nil {
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	if m.KV, err = kvc.NewKVClient(ctx, &cfg.KV); err != nil {
		return nil, fmt.Errorf("init kv: %w", err)
	}

	if m.MQ, err = mqc.New(ctx, &cfg.MQ, reg); err != nil {
		return nil, fmt.Errorf("init mq: %w", err)
	}

	nlog.Logger().Info().
		Str("db", string(cfg.DB.Type)).
		Str("blob", string(cfg.Blob.Type)).
		Str("kv", string(cfg.KV.Type)).
		Str("mq", string(cfg.MQ.Type)).
		Msg("storage manager initialized")

	return m, nil
}

func openBlob(ctx context.Context, cfg *configs.AppConfig, m *Manager) (blob.Store, error) {
	switch cfg.Blob.Type {
	case configs.BlobTypeS3:
		client, err := s3c.New(ctx, &cfg.S3)
		if err != nil {
			return nil, err
		}

		m.S3 = client

		return client, nil
	case configs.BlobTypeLocal:
		return blob.NewLocalStore(cfg.Blob.LocalRoot)
	case configs.BlobTypeMemory:
		return blob.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported blob type: %s", cfg.Blob.Type)
	}
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetBlobStore 获取文件内容存储.
func (m *Manager) GetBlobStore() blob.Store {
	return m.Blob
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheck 检查单个组件.
func (m *Manager) HealthCheck(ctx context.Context, c Component) error {
	var hc healthChecker

	switch c {
	case ComponentDB:
		if m.DB != nil {
			hc = m.DB
		}
	case ComponentS3:
		if m.S3 != nil {
			hc = m.S3
		}
	case ComponentBlob:
		if checker, ok := m.Blob.(healthChecker); ok {
			hc = checker
		} else if m.Blob != nil {
			return nil
		}
	case ComponentKV:
		if m.KV != nil {
			hc = m.KV
		}
	case ComponentMQ:
		if m.MQ != nil {
			hc = m.MQ
		}
	default:
		return fmt.Errorf("unknown component %q", c)
	}

	if hc == nil {
		return fmt.Errorf("%s: %w", c, ErrNotConfigured)
	}

	return hc.HealthCheck(ctx)
}

// Close 按初始化的逆序关闭资源.
func (m *Manager) Close() error {
	var errList []error

	if m.MQ != nil {
		errList = append(errList, m.MQ.Close())
	}

	if m.KV != nil {
		errList = append(errList, m.KV.Close())
	}

	if m.S3 != nil {
		errList = append(errList, m.S3.Close())
	}

	if m.DB != nil {
		errList = append(errList, m.DB.Close())
	}

	return errors.Join(errList...)
}
