package relational

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/datasentry/check"
)

func TestKey(t *testing.T) {
	tests := []struct {
		params check.RelationalParams
		want   string
	}{
		{check.RelationalParams{Server: "DB01.corp"}, "relational:sqlserver:db01.corp:1433"},
		{check.RelationalParams{Server: "db01.corp", Port: 1433, Driver: "mssql"}, "relational:sqlserver:db01.corp:1433"},
		{check.RelationalParams{Server: "db.internal", Driver: "postgresql"}, "relational:postgres:db.internal:5432"},
		{check.RelationalParams{Server: "db.internal", Port: 5433, Driver: "postgres"}, "relational:postgres:db.internal:5433"},
		{check.RelationalParams{Server: "db.internal", Driver: "MariaDB", Database: "hr"}, "relational:mysql:db.internal:3306"},
	}
	for _, tc := range tests {
		if got := Key(tc.params); got != tc.want {
			t.Errorf("Key(%+v) = %q, want %q", tc.params, got, tc.want)
		}
	}
}

func TestSQLServerDSN(t *testing.T) {
	dsn := SQLServerDSN(check.RelationalParams{
		Server:   "db01",
		Port:     1433,
		Database: "master",
		User:     "svc",
		Password: "p@ss",
		Timeout:  30 * time.Second,
	})
	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}
	if u.Scheme != "sqlserver" || u.Host != "db01:1433" {
		t.Errorf("dsn = %q", dsn)
	}
	if pw, _ := u.User.Password(); pw != "p@ss" {
		t.Errorf("password = %q, want p@ss", pw)
	}
	q := u.Query()
	if q.Get("database") != "master" {
		t.Errorf("database = %q, want master", q.Get("database"))
	}
	if q.Get("connection timeout") != "30" {
		t.Errorf("connection timeout = %q, want 30", q.Get("connection timeout"))
	}
}

func TestSQLServerDSNIntegratedSecurity(t *testing.T) {
	dsn := SQLServerDSN(check.RelationalParams{Server: "db01", Database: "master"})
	if strings.Contains(dsn, "@") {
		t.Errorf("dsn = %q, want no user info", dsn)
	}
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(check.RelationalParams{
		Driver:   "postgres",
		Server:   "pg",
		Database: "app",
		User:     "u",
		Password: "p",
		Timeout:  5 * time.Second,
	})
	want := "postgres://u:p@pg/app?connect_timeout=5"
	if dsn != want {
		t.Errorf("PostgresDSN() = %q, want %q", dsn, want)
	}
}

func TestMySQLConfig(t *testing.T) {
	cfg := MySQLConfig(check.RelationalParams{Server: "my", Database: "app", User: "u", Timeout: 10 * time.Second})
	if cfg.Addr != "my:3306" {
		t.Errorf("Addr = %q, want my:3306", cfg.Addr)
	}
	if cfg.DBName != "app" || cfg.Timeout != 10*time.Second {
		t.Errorf("config = %+v", cfg)
	}
}

func TestOpenDrivers(t *testing.T) {
	for _, driver := range []string{"", "sqlserver", "postgres", "mysql"} {
		db, err := Open(check.RelationalParams{Driver: driver, Server: "localhost", Database: "x", User: "u"})
		if err != nil {
			t.Errorf("Open(%q) error = %v", driver, err)
			continue
		}
		_ = db.Close()
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(check.RelationalParams{Driver: "oracle", Server: "s"})
	if !errors.Is(err, ErrDriver) {
		t.Errorf("Open() error = %v, want ErrDriver", err)
	}
}
