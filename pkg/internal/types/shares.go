package types

import "time"

// ShareRequest 创建分享链接. TTLMinutes 省略时使用默认有效期.
type ShareRequest struct {
	TTLMinutes   *int `json:"ttl_minutes"   rule:"omitempty,min=0"`
	MaxDownloads *int `json:"max_downloads" rule:"omitempty,min=1"`
}

// ShareResponse 分享链接地址.
type ShareResponse struct {
	URL          string     `json:"url"`
	ID           string     `json:"id"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	MaxDownloads *int       `json:"max_downloads,omitempty"`
}

// LinkResponse 分享链接及状态.
type LinkResponse struct {
	ID            string     `json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	MaxDownloads  *int       `json:"max_downloads,omitempty"`
	DownloadCount int        `json:"download_count"`
	State         string     `json:"state"`
}
