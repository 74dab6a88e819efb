// Package scheduler 基于 gocron/v2 的定时任务调度，记录每个任务的运行状态供管理接口查看.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
)

// ErrJobNotFound 任务不存在.
var ErrJobNotFound = errors.New("job not found")

// JobStatus 任务状态.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled"
	StatusRunning   JobStatus = "running"
	StatusStopped   JobStatus = "stopped"
	StatusError     JobStatus = "error"
)

// JobInfo 任务的调度与运行信息.
type JobInfo struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CronExpr       string    `json:"cron_expr"`
	NextRun        time.Time `json:"next_run"`
	LastRun        time.Time `json:"last_run"`
	LastSuccess    time.Time `json:"last_success,omitempty"`
	LastDurationMS int64     `json:"last_duration_ms"`
	Runs           int64     `json:"runs"`
	Failures       int64     `json:"failures"`
	Status         JobStatus `json:"status"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type entry struct {
	job  gocron.Job
	info JobInfo
}

// Scheduler 按名称管理定时任务.
type Scheduler struct {
	cron   gocron.Scheduler
	logger zerolog.Logger

	mu   sync.RWMutex
	jobs map[string]*entry

	stopOnce sync.Once
	stopErr  error
}

// NewScheduler 创建调度器，需调用 Start 后任务才会按时触发.
func NewScheduler() (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return &Scheduler{
		cron:   cron,
		logger: log.Component("scheduler"),
		jobs:   make(map[string]*entry),
	}, nil
}

// AddCron 按 cron 表达式（5 段）注册任务. 同一任务不会重叠执行，上一次未结束时本次触发被跳过.
func (s *Scheduler) AddCron(ctx context.Context, name, cronExpr string, job func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job with name %s already exists", name)
	}

	j, err := s.cron.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func(ctx context.Context) { s.run(ctx, name, job) }, ctx),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	now := time.Now()
	s.jobs[name] = &entry{job: j, info: JobInfo{
		ID:        j.ID().String(),
		Name:      name,
		CronExpr:  cronExpr,
		Status:    StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}}

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("added cron job")

	return nil
}

// run 执行一次任务并记录结果，任务内的 panic 记为失败.
func (s *Scheduler) run(ctx context.Context, name string, job func(ctx context.Context) error) {
	start := time.Now()
	s.update(name, func(info *JobInfo) {
		info.Status = StatusRunning
		info.LastRun = start
	})

	err := safeRun(ctx, job)
	elapsed := time.Since(start)

	result := "ok"
	if err != nil {
		result = "error"
		s.logger.Error().Err(err).Str("job", name).Dur("elapsed", elapsed).Msg("job failed")
	} else {
		s.logger.Debug().Str("job", name).Dur("elapsed", elapsed).Msg("job finished")
	}

	metrics.JobRuns.WithLabelValues(name, result).Inc()
	metrics.JobDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	s.update(name, func(info *JobInfo) {
		info.Runs++
		info.LastDurationMS = elapsed.Milliseconds()

		next := StatusScheduled
		if err != nil {
			next = StatusError
			info.Failures++
			info.Error = err.Error()
		} else {
			info.Error = ""
			info.LastSuccess = time.Now()
		}

		// 停止期间结束的任务保持 stopped
		if info.Status != StatusStopped {
			info.Status = next
		}
	})
}

func safeRun(ctx context.Context, job func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in job: %v", r)
		}
	}()

	return job(ctx)
}

func (s *Scheduler) update(name string, fn func(*JobInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.jobs[name]; ok {
		fn(&e.info)
		e.info.UpdatedAt = time.Now()
	}
}

// RunNow 立即触发一次指定任务, 不影响原有的调度.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	e, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%s: %w", name, ErrJobNotFound)
	}

	s.logger.Info().Str("job", name).Msg("triggered job manually")

	return e.job.RunNow()
}

// RemoveJobByName 通过名称移除任务.
func (s *Scheduler) RemoveJobByName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrJobNotFound)
	}

	if err := s.cron.RemoveJob(e.job.ID()); err != nil {
		return err
	}

	delete(s.jobs, name)

	s.logger.Info().Str("job", name).Msg("removed job")

	return nil
}

// snapshot 复制任务信息并从 gocron 读取下次运行时间.
func (e *entry) snapshot() JobInfo {
	info := e.info
	if info.Status != StatusStopped {
		if next, err := e.job.NextRun(); err == nil {
			info.NextRun = next
		}
	}

	return info
}

// GetJobInfoByName 通过名称获取任务信息.
func (s *Scheduler) GetJobInfoByName(name string) (*JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrJobNotFound)
	}

	info := e.snapshot()

	return &info, nil
}

// GetJobInfos 返回全部任务信息，按名称排序.
func (s *Scheduler) GetJobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, e := range s.jobs {
		infos = append(infos, e.snapshot())
	}

	slices.SortFunc(infos, func(a, b JobInfo) int { return strings.Compare(a.Name, b.Name) })

	return infos
}

// JobsWaitingInQueue 返回排队等待执行的任务数.
func (s *Scheduler) JobsWaitingInQueue() int {
	return s.cron.JobsWaitingInQueue()
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.GetJobInfos())).Msg("starting scheduler")
	s.cron.Start()
}

// Stop 停止调度并等待运行中的任务结束，可重复调用.
func (s *Scheduler) Stop() error {
	s.stopOnce.Do(func() {
		s.logger.Info().Msg("stopping scheduler")

		s.mu.Lock()
		for _, e := range s.jobs {
			e.info.Status = StatusStopped
			e.info.NextRun = time.Time{}
		}
		s.mu.Unlock()

		s.stopErr = s.cron.Shutdown()
	})

	return s.stopErr
}
