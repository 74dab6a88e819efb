package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/internal/errs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/preview"
	"github.com/yeisme/filevault/pkg/internal/storage/blob"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/queue"
	"github.com/yeisme/filevault/pkg/tracing"
)

// Generator 为文件生成预览图并写回 preview_key，可重复执行.
type Generator struct {
	*FileService

	renderer *preview.Renderer
}

// NewGenerator 创建预览生成器. frames 为空时使用配置中的 ffmpeg.
func NewGenerator(fs *FileService, frames preview.FrameExtractor) *Generator {
	pc := fs.cfg.Preview
	if frames == nil && pc.FFmpegPath != "" {
		frames = preview.FFmpeg{Path: pc.FFmpegPath}
	}

	return &Generator{
		FileService: fs,
		renderer: preview.NewRenderer(preview.Options{
			MaxDimension: pc.MaxDimension,
			JPEGQuality:  pc.JPEGQuality,
			FrameOffset:  pc.FrameOffset,
		}, frames),
	}
}

// Generate 生成预览图. 文件不存在、已删除或类型不支持时不做任何事.
func (g *Generator) Generate(ctx context.Context, fileID string) error {
	_, _, err := g.generate(ctx, fileID)

	return err
}

// generate 返回结果标签与写入的预览键.
func (g *Generator) generate(ctx context.Context, fileID string) (string, string, error) {
	ctx, span := tracing.StartSpan(ctx, "service.GeneratePreview")
	defer span.End()

	var f model.File

	err := g.dbx(ctx).Where("id = ?", fileID).Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return metrics.ResultDropped, "", nil
	}

	if err != nil {
		return "", "", fmt.Errorf("load file: %w", err)
	}

	kind := preview.KindOf(f.MimeType)
	if kind == preview.KindNone {
		return metrics.ResultSkipped, "", nil
	}

	src, err := g.blobs.Get(ctx, f.BlobKey)
	if err != nil {
		return "", "", errs.SourceUnavailable(err)
	}
	defer src.Close()

	start := time.Now()

	data, err := g.renderer.Render(ctx, f.MimeType, src)
	if err != nil {
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}

		return "", "", errs.PreviewGeneration(err)
	}

	metrics.PreviewDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	key, err := g.blobs.Put(ctx, blob.PreviewKey(f.Owner, f.ID), bytes.NewReader(data), int64(len(data)), "image/jpeg")
	if err != nil {
		return "", "", fmt.Errorf("put preview: %w", err)
	}

	if err := g.dbx(ctx).Model(&model.File{}).Where("id = ?", f.ID).UpdateColumn("preview_key", key).Error; err != nil {
		return "", "", fmt.Errorf("link preview: %w", err)
	}

	return metrics.ResultGenerated, key, nil
}

// Requeue 为超过 requeue_after 仍无预览的图片与视频重新发布生成请求.
// 超过 requeue_max_age 的文件视为已放弃，不再入队.
func (g *Generator) Requeue(ctx context.Context) (int, error) {
	pc := g.cfg.Preview
	if !pc.Enabled {
		return 0, nil
	}

	now := g.now()

	q := g.dbx(ctx).
		Where("preview_key IS NULL").
		Where("(mime_type LIKE ? OR mime_type LIKE ?)", "image/%", "video/%").
		Where("created_at < ?", now.Add(-pc.RequeueAfter))
	if pc.RequeueMaxAge > 0 {
		q = q.Where("created_at >= ?", now.Add(-pc.RequeueMaxAge))
	}

	var files []model.File
	if err := q.Order("created_at").Find(&files).Error; err != nil {
		return 0, fmt.Errorf("find files without preview: %w", err)
	}

	for i := range files {
		f := &files[i]

		msg, err := queue.NewPreviewRequested(queue.PreviewRequestedPayload{
			FileID:   f.ID,
			Owner:    f.Owner,
			MimeType: f.MimeType,
			Attempt:  1,
		}, queue.WithProducer("requeue"))
		if err == nil && g.mq != nil {
			err = g.mq.Publish(ctx, queue.TopicPreviewRequested, msg)
		}

		if err != nil {
			return i, fmt.Errorf("requeue %s: %w", f.ID, err)
		}
	}

	return len(files), nil
}

// PreviewWorker 消费预览请求. 并发数受信号量限制，消息交给 worker 后即确认，重试在进程内完成.
type PreviewWorker struct {
	gen *Generator
	sub Subscriber
	pub Publisher
	sem *semaphore.Weighted
	wg  sync.WaitGroup

	// sleep 可在测试中替换.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPreviewWorker 创建预览 worker，pub 为空时不发布结果事件.
func NewPreviewWorker(gen *Generator, sub Subscriber, pub Publisher) *PreviewWorker {
	workers := gen.cfg.Preview.Workers
	if workers < 1 {
		workers = 1
	}

	return &PreviewWorker{
		gen:   gen,
		sub:   sub,
		pub:   pub,
		sem:   semaphore.NewWeighted(int64(workers)),
		sleep: sleepCtx,
	}
}

// Run 订阅预览请求直到 ctx 取消，返回前等待进行中的任务结束.
func (w *PreviewWorker) Run(ctx context.Context) error {
	msgs, err := w.sub.Subscribe(ctx, queue.TopicPreviewRequested)
	if err != nil {
		return fmt.Errorf("subscribe preview requests: %w", err)
	}

	defer w.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}

			if err := w.dispatch(ctx, msg); err != nil {
				return nil
			}
		}
	}
}

// dispatch 获取信号量后确认消息并异步处理. 只有 ctx 取消时返回错误.
func (w *PreviewWorker) dispatch(ctx context.Context, msg *message.Message) error {
	env, err := queue.ParsePreviewRequested(msg)
	if err != nil {
		w.gen.logger.Warn().Err(err).Str("uuid", msg.UUID).Msg("drop malformed preview request")
		metrics.PreviewJobs.WithLabelValues(metrics.ResultDropped).Inc()
		msg.Ack()

		return nil
	}

	if err := w.sem.Acquire(ctx, 1); err != nil {
		msg.Nack()
		return err
	}

	msg.Ack()
	w.wg.Add(1)

	jobCtx, span := tracing.StartSpan(queue.ExtractTrace(ctx, msg), "worker.Preview",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.String("file.id", env.Payload.FileID)),
	)

	go func() {
		defer w.wg.Done()
		defer w.sem.Release(1)
		defer span.End()

		w.Process(jobCtx, env.Payload.FileID)
	}()

	return nil
}

// Process 为文件生成预览并按错误类型重试，最终发布结果事件.
func (w *PreviewWorker) Process(ctx context.Context, fileID string) {
	pc := w.gen.cfg.Preview
	backoff := pc.RetryBackoff
	attempts, sourceRetries, genRetries := 0, 0, 0

	for {
		attempts++

		result, key, err := w.gen.generate(ctx, fileID)
		if err == nil {
			metrics.PreviewJobs.WithLabelValues(result).Inc()

			if result == metrics.ResultGenerated {
				w.emit(ctx, queue.TopicPreviewGenerated, func() (*message.Message, error) {
					return queue.NewPreviewGenerated(queue.PreviewGeneratedPayload{FileID: fileID, PreviewKey: key})
				})
			}

			return
		}

		if ctx.Err() != nil {
			return
		}

		retry := false

		switch errs.KindOf(err) {
		case errs.KindPreviewGeneration:
			if genRetries < pc.MaxGenerationRetries {
				genRetries++
				retry = true
			}
		default:
			if sourceRetries < pc.MaxRetries {
				sourceRetries++
				retry = true
			}
		}

		if !retry {
			w.fail(ctx, fileID, attempts, err)
			return
		}

		w.gen.logger.Debug().Err(err).Str("file_id", fileID).Int("attempt", attempts).Msg("retry preview")

		if errs.KindOf(err) != errs.KindPreviewGeneration {
			if w.sleep(ctx, backoff) != nil {
				return
			}

			backoff = nextBackoff(backoff, pc.MaxRetryBackoff)
		}
	}
}

func (w *PreviewWorker) fail(ctx context.Context, fileID string, attempts int, err error) {
	metrics.PreviewJobs.WithLabelValues(metrics.ResultFailed).Inc()
	w.gen.logger.Warn().Err(err).Str("file_id", fileID).Int("attempts", attempts).Msg("preview abandoned")

	w.emit(ctx, queue.TopicPreviewFailed, func() (*message.Message, error) {
		return queue.NewPreviewFailed(queue.PreviewFailedPayload{
			FileID:   fileID,
			Kind:     errs.KindOf(err).String(),
			Error:    err.Error(),
			Attempts: attempts,
		})
	})
}

func (w *PreviewWorker) emit(ctx context.Context, topic string, build func() (*message.Message, error)) {
	if w.pub == nil {
		return
	}

	msg, err := build()
	if err == nil {
		err = w.pub.Publish(ctx, topic, msg)
	}

	if err != nil {
		w.gen.logger.Warn().Err(err).Str("topic", topic).Msg("publish preview outcome failed")
	}
}

func nextBackoff(cur, limit time.Duration) time.Duration {
	next := cur * 2
	if limit > 0 && next > limit {
		return limit
	}

	return next
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
