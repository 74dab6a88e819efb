//go:build !no_postgres

package db

import (
	"net/url"
	"testing"

	"github.com/yeisme/filevault/pkg/configs"
)

// TestPostgresDSN 测试密码中的特殊字符被转义且参数合并.
func TestPostgresDSN(t *testing.T) {
	dsn := postgresDSN(&configs.DBConfig{
		Type:     "pg",
		Host:     "db.internal",
		Port:     5433,
		User:     "vault",
		Password: "p@ss/w:rd",
		Database: "filevault",
		SSLMode:  "require",
		Params:   map[string]string{"application_name": "filevault"},
	})

	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse %q: %v", dsn, err)
	}

	if pw, _ := u.User.Password(); pw != "p@ss/w:rd" {
		t.Errorf("password = %q", pw)
	}

	if u.Host != "db.internal:5433" || u.Path != "/filevault" {
		t.Errorf("host/path = %s %s", u.Host, u.Path)
	}

	q := u.Query()
	if q.Get("sslmode") != "require" || q.Get("application_name") != "filevault" {
		t.Errorf("query = %v", q)
	}
}
