package model

import (
	"fmt"

	"gorm.io/gorm"
)

// All 返回需要迁移的全部模型.
func All() []any {
	return []any{&File{}, &Folder{}, &SharedLink{}}
}

// AutoMigrate 迁移全部模型表结构.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}
