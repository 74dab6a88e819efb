// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/scheduler"
)

// 任务名称，同时用作调度接口中的 :name.
const (
	JobRetentionSweep = "retention.sweep"
	JobPreviewRequeue = "preview.requeue"
)

// RegisterCronJobs 配置业务定时任务：
//   - retention.cron 执行回收站过期清理（retention.days 之前删除的文件）
//   - preview.requeue_cron 将长时间没有预览的文件重新入队
func RegisterCronJobs(ctx context.Context, sched *scheduler.Scheduler, svc *service.Services, cfg *configs.AppConfig) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if svc == nil {
		return errors.New("services is nil")
	}

	if cfg.Retention.Enabled {
		if err := sched.AddCron(ctx, JobRetentionSweep, cfg.Retention.Cron, func(ctx context.Context) error {
			return runRetentionSweep(ctx, svc.Sweeper)
		}); err != nil {
			return fmt.Errorf("register %s: %w", JobRetentionSweep, err)
		}
	}

	if cfg.Preview.Enabled && cfg.Preview.RequeueCron != "" {
		if err := sched.AddCron(ctx, JobPreviewRequeue, cfg.Preview.RequeueCron, func(ctx context.Context) error {
			return runPreviewRequeue(ctx, svc.Previews)
		}); err != nil {
			return fmt.Errorf("register %s: %w", JobPreviewRequeue, err)
		}
	}

	return nil
}

// runRetentionSweep 按配置的保留天数清理回收站，部分失败时返回错误以便在任务状态中可见.
func runRetentionSweep(ctx context.Context, sweeper *service.Sweeper) error {
	res := sweeper.Sweep(ctx, -1)
	if len(res.Failures) > 0 {
		return fmt.Errorf("retention sweep: %d of %d files failed", len(res.Failures), res.Scanned)
	}

	return nil
}

// runPreviewRequeue 重新投递缺失预览的文件.
func runPreviewRequeue(ctx context.Context, gen *service.Generator) error {
	n, err := gen.Requeue(ctx)
	if err != nil {
		return err
	}

	if n > 0 {
		l := log.Logger().With().Str("job", JobPreviewRequeue).Logger()
		l.Info().Int("requeued", n).Msg("requeued files without preview")
	}

	return nil
}
