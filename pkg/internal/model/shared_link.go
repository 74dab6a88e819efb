package model

import "time"

// LinkState 分享链接状态.
type LinkState string

const (
	LinkValid     LinkState = "valid"
	LinkExpired   LinkState = "expired"
	LinkExhausted LinkState = "exhausted"
)

// SharedLink 文件的公开分享链接. 只有下载计数会被更新，随文件一起删除.
type SharedLink struct {
	ID            string     `gorm:"primaryKey;size:32"          json:"id"`
	FileID        string     `gorm:"size:36;not null;index"      json:"file_id"`
	Token         string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `gorm:"index"                       json:"expires_at,omitempty"`
	MaxDownloads  *int       `json:"max_downloads,omitempty"`
	DownloadCount int        `gorm:"not null;default:0"          json:"download_count"`

	File *File `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 表名.
func (SharedLink) TableName() string { return "shared_links" }

// State 计算链接在 now 时刻的状态. 过期判定严格为 now > expires_at.
func (l *SharedLink) State(now time.Time) LinkState {
	if l.ExpiresAt != nil && now.After(*l.ExpiresAt) {
		return LinkExpired
	}

	if l.MaxDownloads != nil && l.DownloadCount >= *l.MaxDownloads {
		return LinkExhausted
	}

	return LinkValid
}

// Valid 链接当前是否可用.
func (l *SharedLink) Valid(now time.Time) bool { return l.State(now) == LinkValid }
