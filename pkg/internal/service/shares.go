package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/cache"
	"github.com/yeisme/filevault/pkg/internal/errs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/tracing"
)

const (
	tokenBytes   = 32
	linkIDPrefix = "sl_"
)

// ShareService 公开分享链接.
type ShareService struct {
	*FileService

	cache *cache.Cache
}

// LinkView 链接及其当前状态.
type LinkView struct {
	model.SharedLink

	State model.LinkState `json:"state"`
}

// linkEntry 缓存中的链接只包含不可变字段，下载计数始终以数据库为准.
type linkEntry struct {
	ID           string     `json:"id"`
	FileID       string     `json:"file_id"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	MaxDownloads *int       `json:"max_downloads,omitempty"`
}

// Create 为 owner 的文件创建分享链接. ttlMinutes 为 nil 时使用默认有效期.
func (s *ShareService) Create(ctx context.Context, owner, fileID string, ttlMinutes, maxDownloads *int) (*model.SharedLink, error) {
	ttl := s.cfg.Share.DefaultTTLMinutes
	if ttlMinutes != nil {
		ttl = *ttlMinutes
	}

	if ttl < 0 {
		return nil, errs.Validation("ttl_minutes must not be negative")
	}

	if maxDownloads != nil && *maxDownloads < 1 {
		return nil, errs.Validation("max_downloads must be at least 1")
	}

	f, err := s.Get(ctx, owner, fileID)
	if err != nil {
		return nil, err
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	expires := now.Add(time.Duration(ttl) * time.Minute)

	link := &model.SharedLink{
		ID:           linkIDPrefix + ulid.Make().String(),
		FileID:       f.ID,
		Token:        token,
		CreatedAt:    now,
		ExpiresAt:    &expires,
		MaxDownloads: maxDownloads,
	}

	if err := s.dbx(ctx).Create(link).Error; err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	return link, nil
}

// PublicURL 返回链接的公开地址，baseURL 为空时使用 fallback.
func (s *ShareService) PublicURL(fallback, token string) string {
	base := s.cfg.Share.BaseURL
	if base == "" {
		base = fallback
	}

	return strings.TrimRight(base, "/") + "/p/" + token + "/"
}

// Resolve 解析公开链接并占用一次下载次数.
func (s *ShareService) Resolve(ctx context.Context, token string) (*model.File, error) {
	ctx, span := tracing.StartSpan(ctx, "service.ResolveShare")
	defer span.End()

	f, err := s.resolve(ctx, token)

	switch {
	case err == nil:
		metrics.ShareResolves.WithLabelValues(metrics.ResultOK).Inc()
	case errors.Is(err, errs.ErrLinkExpired):
		metrics.ShareResolves.WithLabelValues(metrics.ResultExpired).Inc()
	case errors.Is(err, errs.ErrNotFound):
		metrics.ShareResolves.WithLabelValues(metrics.ResultNotFound).Inc()
	default:
		metrics.ShareResolves.WithLabelValues(metrics.ResultError).Inc()
	}

	return f, err
}

func (s *ShareService) resolve(ctx context.Context, token string) (*model.File, error) {
	if token == "" {
		return nil, errs.NotFound("link not found")
	}

	entry, err := s.loadLink(ctx, token)
	if err != nil {
		return nil, err
	}

	var f model.File

	err = s.dbx(ctx).Where("id = ?", entry.FileID).Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("link not found")
	}

	if err != nil {
		return nil, fmt.Errorf("load shared file: %w", err)
	}

	now := s.now()
	if entry.ExpiresAt != nil && now.After(*entry.ExpiresAt) {
		return nil, errs.LinkExpired()
	}

	res := s.dbx(ctx).Model(&model.SharedLink{}).
		Where("id = ?", entry.ID).
		Where("max_downloads IS NULL OR download_count < max_downloads").
		Where("expires_at IS NULL OR expires_at >= ?", now).
		UpdateColumn("download_count", gorm.Expr("download_count + 1"))
	if res.Error != nil {
		return nil, fmt.Errorf("count download: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, errs.LinkExpired()
	}

	return &f, nil
}

// loadLink 经 KV 缓存读取链接的不可变字段.
func (s *ShareService) loadLink(ctx context.Context, token string) (linkEntry, error) {
	load := func() (linkEntry, error) {
		var l model.SharedLink

		err := s.dbx(ctx).Where("token = ?", token).Take(&l).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return linkEntry{}, errs.NotFound("link not found")
		}

		if err != nil {
			return linkEntry{}, fmt.Errorf("load link: %w", err)
		}

		return linkEntry{ID: l.ID, FileID: l.FileID, ExpiresAt: l.ExpiresAt, MaxDownloads: l.MaxDownloads}, nil
	}

	return cache.GetOrSet(ctx, s.cache, token, load, s.cfg.Share.CacheTTL)
}

// ListForFile 列出文件的全部分享链接及其状态.
func (s *ShareService) ListForFile(ctx context.Context, owner, fileID string) ([]LinkView, error) {
	if _, err := s.Get(ctx, owner, fileID); err != nil {
		return nil, err
	}

	var links []model.SharedLink
	if err := s.dbx(ctx).Where("file_id = ?", fileID).Order("created_at DESC").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	now := s.now()
	out := make([]LinkView, 0, len(links))

	for _, l := range links {
		out = append(out, LinkView{SharedLink: l, State: l.State(now)})
	}

	return out, nil
}

// newToken 生成 43 字符的 base64url 随机令牌.
func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
