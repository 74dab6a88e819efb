// Package db 处理数据库存储操作，按配置选择方言并接入 zerolog 日志与 Prometheus 指标.
package db

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormPrometheus "gorm.io/plugin/prometheus"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/model"
	nlog "github.com/yeisme/filevault/pkg/log"
)

// DialectorFactory 由数据库配置创建 dialector，各驱动自行拼装 DSN.
type DialectorFactory func(cfg *configs.DBConfig) gorm.Dialector

// dialectorFactories 以规范类型为键.
var dialectorFactories = map[configs.DBType]DialectorFactory{}

// RegisterDialectorFactory 注册数据库 dialector 工厂函数.
func RegisterDialectorFactory(dbType configs.DBType, factory DialectorFactory) {
	dialectorFactories[dbType.Canonical()] = factory
}

// GetRegisteredDBTypes 返回已注册的数据库类型列表.
func GetRegisteredDBTypes() []configs.DBType {
	types := slices.Collect(maps.Keys(dialectorFactories))
	slices.Sort(types)

	return types
}

// PoolOptions 连接池与日志参数.
type PoolOptions struct {
	MaxOpen       int
	MaxIdle       int
	MaxLifetime   time.Duration
	MaxIdleTime   time.Duration
	SlowThreshold time.Duration
}

// poolOptions 从配置提取连接池参数.
func poolOptions(cfg *configs.DBConfig) PoolOptions {
	return PoolOptions{
		MaxOpen:       cfg.MaxOpenConns,
		MaxIdle:       cfg.MaxIdleConns,
		MaxLifetime:   cfg.ConnMaxLifetime,
		MaxIdleTime:   cfg.ConnMaxIdleTime,
		SlowThreshold: cfg.SlowThreshold,
	}
}

// sqliteDSN 返回带 busy_timeout 与外键约束的 SQLite DSN，两个 SQLite 驱动共用.
func sqliteDSN(cfg *configs.DBConfig) string {
	name := cfg.Database
	if filepath.Ext(name) == "" {
		name += ".db"
	}

	return "file:" + name + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// Client 包装 GORM DB 客户端.
type Client struct {
	*gorm.DB
}

// NowFunc 统一使用微秒精度的 UTC 时间，保证各数据库之间时间比较一致.
func NowFunc() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// New 根据配置创建数据库客户端并执行迁移.
func New(ctx context.Context, cfg *configs.DBConfig) (*Client, error) {
	factory, exists := dialectorFactories[cfg.Driver()]
	if !exists {
		return nil, fmt.Errorf("unsupported database type: %s (registered: %v)", cfg.Type, GetRegisteredDBTypes())
	}

	client, err := Open(ctx, factory(cfg), poolOptions(cfg))
	if err != nil {
		return nil, err
	}

	nlog.Logger().Info().
		Str("type", cfg.DisplayName()).
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("database connected")

	return client, nil
}

// Open 使用给定 dialector 打开连接、配置连接池并迁移表结构.
func Open(ctx context.Context, dialector gorm.Dialector, opts PoolOptions) (*Client, error) {
	level := logger.Warn
	if configs.GetConfig().Server.Debug {
		level = logger.Info
	}

	gl := nlog.Component("gorm")
	gormLogger := logger.New(
		&gl,
		logger.Config{
			SlowThreshold:             opts.SlowThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormLogger,
		NowFunc: NowFunc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(opts.MaxOpen)
	sqlDB.SetMaxIdleConns(opts.MaxIdle)
	sqlDB.SetConnMaxLifetime(opts.MaxLifetime)
	sqlDB.SetConnMaxIdleTime(opts.MaxIdleTime)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := model.AutoMigrate(db.WithContext(ctx)); err != nil {
		return nil, err
	}

	return &Client{DB: db}, nil
}

// GetDB 返回 GORM DB 实例.
func (c *Client) GetDB() *gorm.DB {
	return c.DB
}

// HealthCheck 检查数据库连通性.
func (c *Client) HealthCheck(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// Close 关闭底层连接池.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

const defaultGORMMetricsRefreshInterval = 15 // 秒

// RegisterGORMMetrics 注册GORM连接池指标到默认注册表, interval 为刷新间隔.
func (c *Client) RegisterGORMMetrics(dbName string, interval time.Duration) error {
	refresh := uint32(interval / time.Second)
	if refresh == 0 {
		refresh = defaultGORMMetricsRefreshInterval
	}

	promConfig := gormPrometheus.Config{
		DBName:          dbName,
		RefreshInterval: refresh,
		StartServer:     false,
	}

	if err := c.Use(gormPrometheus.New(promConfig)); err != nil {
		return fmt.Errorf("failed to register GORM prometheus plugin: %w", err)
	}

	return nil
}
