//go:build !no_mysql

package db

import (
	"net"
	"strconv"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/configs"
)

// mysqlDSN 通过驱动自带的 Config 生成 DSN，时间统一按 UTC 解析.
func mysqlDSN(cfg *configs.DBConfig) string {
	c := mysqldrv.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.Database
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}

	for k, v := range cfg.Params {
		c.Params[k] = v
	}

	return c.FormatDSN()
}

func init() {
	RegisterDialectorFactory(configs.MySQL, func(cfg *configs.DBConfig) gorm.Dialector {
		return mysql.Open(mysqlDSN(cfg))
	})
}
