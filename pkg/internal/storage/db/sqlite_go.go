//go:build !no_sqlite && !cgo

package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/configs"
)

func init() {
	RegisterDialectorFactory(configs.SQLite, func(cfg *configs.DBConfig) gorm.Dialector {
		return sqlite.Open(sqliteDSN(cfg))
	})
}
