package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/tracing"
)

// sweepBatch 每批加载的过期文件数.
const sweepBatch = 500

// Sweeper 清理超过保留期的回收站文件.
type Sweeper struct{ *FileService }

// SweepFailure 单个文件的清理失败.
type SweepFailure struct {
	FileID string `json:"file_id"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
}

// SweepResult 一次清理的结果.
type SweepResult struct {
	Scanned  int            `json:"scanned"`
	Purged   int            `json:"purged"`
	Failures []SweepFailure `json:"failures,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// Sweep 永久删除所有用户中 deleted_at 早于 now-days 的文件. days < 0 时使用配置的保留天数.
// 单个文件失败会被记录并跳过，不中断整次清理.
func (s *Sweeper) Sweep(ctx context.Context, days int) SweepResult {
	ctx, span := tracing.StartSpan(ctx, "service.Sweep")
	defer span.End()

	if days < 0 {
		days = s.cfg.Retention.Days
	}

	start := time.Now()
	cutoff := s.now().Add(-retention(days))
	res := SweepResult{}
	failed := map[string]bool{}

	for ctx.Err() == nil {
		batch, err := s.expired(ctx, cutoff, failed)
		if err != nil {
			s.logger.Error().Err(err).Msg("load expired files failed")
			res.Failures = append(res.Failures, SweepFailure{Stage: StageRow, Error: err.Error()})
			metrics.SweepFailures.WithLabelValues(StageRow).Inc()

			break
		}

		if len(batch) == 0 {
			break
		}

		for i := range batch {
			if ctx.Err() != nil {
				break
			}

			res.Scanned++
			f := &batch[i]

			if err := s.purge(ctx, f, PurgeSourceSweep); err != nil {
				failed[f.ID] = true
				res.Failures = append(res.Failures, sweepFailure(f.ID, err))
				metrics.SweepFailures.WithLabelValues(res.Failures[len(res.Failures)-1].Stage).Inc()
				s.logger.Warn().Err(err).Str("file_id", f.ID).Msg("sweep purge failed")

				continue
			}

			res.Purged++
			metrics.SweepPurged.Inc()
		}
	}

	res.Duration = time.Since(start)
	metrics.SweepDuration.Observe(res.Duration.Seconds())

	s.logger.Info().
		Int("days", days).
		Int("scanned", res.Scanned).
		Int("purged", res.Purged).
		Int("failures", len(res.Failures)).
		Dur("duration", res.Duration).
		Msg("retention sweep finished")

	return res
}

// expired 加载一批过期文件，跳过本次清理中已失败的文件.
func (s *Sweeper) expired(ctx context.Context, cutoff time.Time, skip map[string]bool) ([]model.File, error) {
	q := s.dbx(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Order("deleted_at").
		Limit(sweepBatch)

	if len(skip) > 0 {
		ids := make([]string, 0, len(skip))
		for id := range skip {
			ids = append(ids, id)
		}

		q = q.Where("id NOT IN ?", ids)
	}

	var files []model.File
	if err := q.Find(&files).Error; err != nil {
		return nil, fmt.Errorf("load expired files: %w", err)
	}

	return files, nil
}

func sweepFailure(id string, err error) SweepFailure {
	stage := StageRow

	var pe *PurgeError
	if errors.As(err, &pe) {
		stage = pe.Stage
	}

	return SweepFailure{FileID: id, Stage: stage, Error: err.Error()}
}
