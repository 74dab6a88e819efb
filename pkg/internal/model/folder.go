package model

import "time"

// Folder 用户目录，ParentID 为空表示位于根目录.
// (owner, parent_id, name) 唯一；根目录下 parent_id 为 NULL 时由 service 层保证唯一.
type Folder struct {
	ID        string    `gorm:"primaryKey;size:36"                              json:"id"`
	Owner     string    `gorm:"size:255;not null;uniqueIndex:idx_folder_sibling" json:"owner"`
	ParentID  *string   `gorm:"size:36;uniqueIndex:idx_folder_sibling;index"     json:"parent_id,omitempty"`
	Name      string    `gorm:"size:255;not null;uniqueIndex:idx_folder_sibling" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 表名.
func (Folder) TableName() string { return "folders" }
