// Package app 提供应用程序的初始化和配置功能.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	appcache "github.com/yeisme/filevault/pkg/cache"
	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/handle"
	"github.com/yeisme/filevault/pkg/internal/jobs"
	"github.com/yeisme/filevault/pkg/internal/router"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/storage"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/scheduler"
	"github.com/yeisme/filevault/pkg/tracing"
)

// App 持有运行期的全部资源.
type App struct {
	Engine *gin.Engine

	config    *configs.AppConfig
	manager   *storage.Manager
	services  *service.Services
	scheduler *scheduler.Scheduler
	logger    *zerolog.Logger
}

// NewApp 按已加载的配置初始化日志、追踪、指标、存储、业务服务、定时任务与路由.
// 失败时释放已初始化的资源.
func NewApp(ctx context.Context, config *configs.AppConfig) (a *App, err error) {
	if config == nil {
		config = configs.GetConfig()
	}

	log.Init()

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	if err := tracing.InitTracer(ctx, config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	a = &App{config: config, logger: l}

	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	if a.manager, err = storage.Init(ctx, config, metrics.GetRegistry()); err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	a.services = service.New(service.Deps{
		DB:     a.manager.GetDBClient().GetDB(),
		Blobs:  a.manager.GetBlobStore(),
		MQ:     a.manager.GetMQClient(),
		KV:     a.manager.GetKVClient(),
		Config: config,
		Logger: l,
	})

	if a.scheduler, err = scheduler.NewScheduler(); err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err = jobs.RegisterCronJobs(ctx, a.scheduler, a.services, config); err != nil {
		return nil, err
	}

	a.Engine = router.New(router.Deps{
		Handlers:  handle.New(a.services, config),
		Config:    config,
		Manager:   a.manager,
		Scheduler: a.scheduler,
		Cache:     appcache.NewCache(a.manager.GetKVClient(), "fv:http:"),
	})

	if err = metrics.StartMetricsServer(config.Metrics, a.Engine); err != nil {
		return nil, fmt.Errorf("start metrics: %w", err)
	}

	return a, nil
}

// Run 启动 HTTP 服务、预览 worker 与定时任务，收到 SIGINT/SIGTERM 后优雅退出.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              net.JoinHostPort(a.config.Server.Host, strconv.Itoa(a.config.Server.Port)),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", srv.Addr).Str("version", configs.AppVersion).Msg("http server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	if a.config.Preview.Enabled {
		worker := service.NewPreviewWorker(a.services.Previews, a.manager.GetMQClient(), a.manager.GetMQClient())

		g.Go(func() error {
			return worker.Run(gctx)
		})
	}

	a.scheduler.Start()

	g.Go(func() error {
		<-gctx.Done()

		a.logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout())
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}

		return nil
	})

	err := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	a.close(closeCtx)

	return err
}

func (a *App) shutdownTimeout() time.Duration {
	if d := a.config.Server.ShutdownTimeout; d > 0 {
		return d
	}

	return configs.DefaultShutdownTimeout
}

// close 按启动的逆序释放资源，错误只记录日志.
func (a *App) close(ctx context.Context) {
	if a.scheduler != nil {
		if err := a.scheduler.Stop(); err != nil {
			a.logger.Warn().Err(err).Msg("stop scheduler")
		}
	}

	if a.manager != nil {
		if err := a.manager.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close storage")
		}
	}

	if err := tracing.ShutdownTracer(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("shutdown tracer")
	}
}
