//go:build !no_sqlite && cgo

package db

import (
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/configs"
)

// mattnPragmas 将 _pragma=name(value) 写法转换为 mattn/go-sqlite3 的参数名.
var mattnPragmas = strings.NewReplacer(
	"_pragma=busy_timeout(", "_busy_timeout=",
	"_pragma=foreign_keys(1)", "_foreign_keys=1",
	")", "",
)

func init() {
	RegisterDialectorFactory(configs.SQLite, func(cfg *configs.DBConfig) gorm.Dialector {
		return sqlite.Open(mattnPragmas.Replace(sqliteDSN(cfg)))
	})
}
