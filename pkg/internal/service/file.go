// Package service 实现文件、目录、分享、回收站与统计等业务逻辑.
//
// 各服务共享一个 FileService，依赖在构造时注入，便于测试中替换为内存实现：
//
//	svc := service.New(service.Deps{DB: dbc.GetDB(), Blobs: store, MQ: mqc, KV: kvc, Config: cfg})
//	f, err := svc.Files.Upload(ctx, owner, in)
package service

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/cache"
	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/storage/blob"
	"github.com/yeisme/filevault/pkg/internal/storage/db"
	"github.com/yeisme/filevault/pkg/internal/storage/kv"
	nlog "github.com/yeisme/filevault/pkg/log"
)

// Publisher 发布领域事件，mq.Client 满足该接口.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// Subscriber 订阅领域事件，mq.Client 满足该接口.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Deps 服务依赖. MQ 与 KV 可以为空，此时不发布事件、不缓存.
type Deps struct {
	DB     *gorm.DB
	Blobs  blob.Store
	MQ     Publisher
	KV     kv.KVStore
	Config *configs.AppConfig
	// Clock 为空时使用 db.NowFunc.
	Clock  func() time.Time
	Logger *zerolog.Logger
}

// FileService 各业务服务共享的依赖.
type FileService struct {
	db     *gorm.DB
	blobs  blob.Store
	mq     Publisher
	cfg    *configs.AppConfig
	now    func() time.Time
	quota  *QuotaGuard
	logger zerolog.Logger
}

// Services 聚合全部业务服务.
type Services struct {
	Files    *FileService
	Folders  *FolderService
	Shares   *ShareService
	Trash    *TrashService
	Stats    *StatsService
	Previews *Generator
	Sweeper  *Sweeper
}

// New 根据依赖构造全部服务.
func New(d Deps) *Services {
	fs := NewFileService(d)

	var linkCache *cache.Cache
	if d.KV != nil {
		linkCache = cache.NewCache(d.KV, "fv:share:")
	}

	return &Services{
		Files:    fs,
		Folders:  &FolderService{FileService: fs, locks: newOwnerLocks()},
		Shares:   &ShareService{FileService: fs, cache: linkCache},
		Trash:    &TrashService{fs},
		Stats:    &StatsService{fs},
		Previews: NewGenerator(fs, nil),
		Sweeper:  &Sweeper{fs},
	}
}

// NewFileService 构造 FileService.
func NewFileService(d Deps) *FileService {
	cfg := d.Config
	if cfg == nil {
		cfg = configs.GetConfig()
	}

	clock := d.Clock
	if clock == nil {
		clock = db.NowFunc
	}

	logger := nlog.Component("service")
	if d.Logger != nil {
		logger = d.Logger.With().Str("component", "service").Logger()
	}

	return &FileService{
		db:     d.DB,
		blobs:  d.Blobs,
		mq:     d.MQ,
		cfg:    cfg,
		now:    func() time.Time { return clock().UTC().Truncate(time.Microsecond) },
		quota:  NewQuotaGuard(d.DB, cfg.Upload.QuotaBytesPerUser),
		logger: logger,
	}
}

// Quota 返回配额守卫.
func (s *FileService) Quota() *QuotaGuard { return s.quota }

// dbx 返回绑定 ctx 的 DB 会话.
func (s *FileService) dbx(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// publish 尽力发布事件，失败只记录警告.
func (s *FileService) publish(ctx context.Context, topic string, msg *message.Message, err error) {
	if s.mq == nil {
		return
	}

	if err == nil {
		err = s.mq.Publish(ctx, topic, msg)
	}

	if err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("publish event failed")
	}
}
