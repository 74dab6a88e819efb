//go:build !no_postgres

package db

import (
	"net"
	"net/url"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/configs"
)

// postgresDSN 以 URL 形式拼装 DSN，用户名与密码中的特殊字符会被转义.
func postgresDSN(cfg *configs.DBConfig) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   cfg.Host,
		Path:   "/" + cfg.Database,
	}

	if cfg.Port > 0 {
		u.Host = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	}

	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}

	q := url.Values{}
	for k, v := range cfg.Params {
		q.Set(k, v)
	}

	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}

	u.RawQuery = q.Encode()

	return u.String()
}

func init() {
	RegisterDialectorFactory(configs.PostgreSQL, func(cfg *configs.DBConfig) gorm.Dialector {
		return postgres.Open(postgresDSN(cfg))
	})
}
