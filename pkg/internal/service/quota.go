package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/internal/errs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/metrics"
)

// QuotaGuard 按用户串行化配额检查与文件写入.
// 同一用户的准入从检查用量开始持有锁，直到 fn 中的插入完成.
type QuotaGuard struct {
	db    *gorm.DB
	limit int64
	locks *ownerLocks
}

// NewQuotaGuard 创建配额守卫，limit <= 0 表示不限制.
func NewQuotaGuard(db *gorm.DB, limit int64) *QuotaGuard {
	return &QuotaGuard{db: db, limit: limit, locks: newOwnerLocks()}
}

// Limit 返回单用户配额.
func (q *QuotaGuard) Limit() int64 { return q.limit }

func (q *QuotaGuard) lock(ctx context.Context, owner string) (func(), error) {
	return q.locks.lock(ctx, owner)
}

func (q *QuotaGuard) held() int { return q.locks.held() }

// ownerLocks 按用户分配的互斥锁，没有持有者与等待者时回收.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*ownerLock)}
}

// lock 获取 owner 的锁，ctx 取消时放弃等待.
func (o *ownerLocks) lock(ctx context.Context, owner string) (func(), error) {
	o.mu.Lock()

	l, ok := o.locks[owner]
	if !ok {
		l = &ownerLock{sem: semaphore.NewWeighted(1)}
		o.locks[owner] = l
	}

	l.refs++
	o.mu.Unlock()

	release := func() {
		o.mu.Lock()
		l.refs--

		if l.refs == 0 {
			delete(o.locks, owner)
		}
		o.mu.Unlock()
	}

	if err := l.sem.Acquire(ctx, 1); err != nil {
		release()
		return nil, err
	}

	return func() {
		l.sem.Release(1)
		release()
	}, nil
}

// held 当前持有或等待锁的用户数.
func (o *ownerLocks) held() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.locks)
}

// Usage 返回 owner 未删除文件的总大小及配额.
func (q *QuotaGuard) Usage(ctx context.Context, owner string) (used, limit int64, err error) {
	var sum struct{ Total int64 }

	err = q.db.WithContext(ctx).Model(&model.File{}).
		Select("COALESCE(SUM(size), 0) AS total").
		Where("owner = ?", owner).
		Scan(&sum).Error
	if err != nil {
		return 0, q.limit, fmt.Errorf("sum usage: %w", err)
	}

	return sum.Total, q.limit, nil
}

// Admit 检查追加 additional 字节后是否超出配额，调用方需持有 owner 的锁.
func (q *QuotaGuard) Admit(ctx context.Context, owner string, additional int64) error {
	if q.limit <= 0 {
		return nil
	}

	used, limit, err := q.Usage(ctx, owner)
	if err != nil {
		return err
	}

	if used+additional > limit {
		metrics.QuotaDenied.Inc()
		return errs.QuotaExceeded(used, additional, limit)
	}

	return nil
}

// WithAdmission 在 owner 的锁内完成准入检查并执行 fn.
func (q *QuotaGuard) WithAdmission(ctx context.Context, owner string, bytes int64, fn func(ctx context.Context) error) error {
	unlock, err := q.lock(ctx, owner)
	if err != nil {
		return err
	}
	defer unlock()

	if err := q.Admit(ctx, owner, bytes); err != nil {
		return err
	}

	return fn(ctx)
}
