package configs

import (
	"time"

	"github.com/spf13/viper"
)

// DBType 数据库类型，配置中允许使用别名.
type DBType string

const (
	PostgreSQL DBType = "postgresql"
	MySQL      DBType = "mysql"
	SQLite     DBType = "sqlite"
)

// dbAliases 别名到规范类型.
var dbAliases = map[DBType]DBType{
	"postgres": PostgreSQL,
	"postgre":  PostgreSQL,
	"pg":       PostgreSQL,
	"mariadb":  MySQL,
	"sqlite3":  SQLite,
}

// Canonical 返回别名对应的规范类型，未知类型原样返回.
func (t DBType) Canonical() DBType {
	if c, ok := dbAliases[t]; ok {
		return c
	}

	return t
}

// DBConfig 数据库配置. sqlite 只使用 Database，作为文件路径，缺少扩展名时补 .db.
type DBConfig struct {
	Type     DBType            `mapstructure:"type"     rule:"oneof=postgresql postgres postgre pg mysql mariadb sqlite sqlite3"`
	Host     string            `mapstructure:"host"     rule:"omitempty,hostname_rfc1123"`
	Port     int               `mapstructure:"port"     rule:"min=0,max=65535"`
	User     string            `mapstructure:"user"`
	Password string            `mapstructure:"password"`
	Database string            `mapstructure:"database" rule:"required"`
	SSLMode  string            `mapstructure:"sslmode"  rule:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	Params   map[string]string `mapstructure:"params"` // 追加到 DSN 的驱动参数

	MaxOpenConns    int           `mapstructure:"max_open_conns"     rule:"min=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"     rule:"min=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	// SlowThreshold 超过该耗时的 SQL 以 warn 级别记录，0 关闭慢查询日志.
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

// Driver 返回规范化后的数据库类型.
func (c *DBConfig) Driver() DBType {
	return c.Type.Canonical()
}

// DisplayName 返回用于日志的数据库名称.
func (c *DBConfig) DisplayName() string {
	switch c.Driver() {
	case PostgreSQL:
		return "PostgreSQL"
	case MySQL:
		return "MySQL"
	case SQLite:
		return "SQLite"
	default:
		return "Unknown"
	}
}

func (c *DBConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("db.type", SQLite)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "filevault")
	v.SetDefault("db.database", "filevault")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 0)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("db.conn_max_idle_time", 5*time.Minute)
	v.SetDefault("db.slow_threshold", 200*time.Millisecond)
}
