// Package relational runs query checks against SQL Server, PostgreSQL and
// MySQL databases.
//
// The driver is chosen by the check's driver parameter. SQL Server is the
// default. When no user is configured the connection authenticates as the
// process identity.
package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/jonwraymond/datasentry/backend"
	"github.com/jonwraymond/datasentry/check"
)

// Supported driver names.
const (
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
)

// ErrDriver is returned for an unsupported driver name.
var ErrDriver = errors.New("relational: unsupported driver")

// Key returns the pool key for p: the engine and the server address. An
// unset port is keyed as the engine's default port.
func Key(p check.RelationalParams) string {
	driver := normalizeDriver(p.Driver)
	port := p.Port
	if port == 0 {
		port = defaultPorts[driver]
	}
	return "relational:" + strings.ToLower(driver+":"+hostPort(p.Server, port))
}

var defaultPorts = map[string]int{
	DriverSQLServer: 1433,
	DriverPostgres:  5432,
	DriverMySQL:     3306,
}

// New creates an unopened adapter for the server named in p.
func New(p check.RelationalParams) *backend.SQLAdapter {
	return backend.NewSQLAdapter(check.KindRelational, func(context.Context) (*sql.DB, error) {
		return Open(p)
	})
}

// Factory returns a pool factory for p.
func Factory(p check.RelationalParams) backend.Factory {
	return func() (backend.Adapter, error) {
		return New(p), nil
	}
}

// Open returns a database handle for p. No connection is made until the
// handle is used.
func Open(p check.RelationalParams) (*sql.DB, error) {
	switch normalizeDriver(p.Driver) {
	case DriverSQLServer:
		return sql.Open("sqlserver", SQLServerDSN(p))
	case DriverPostgres:
		cfg, err := pgx.ParseConfig(PostgresDSN(p))
		if err != nil {
			return nil, fmt.Errorf("relational: postgres config: %w", err)
		}
		return stdlib.OpenDB(*cfg), nil
	case DriverMySQL:
		conn, err := mysql.NewConnector(MySQLConfig(p))
		if err != nil {
			return nil, fmt.Errorf("relational: mysql config: %w", err)
		}
		return sql.OpenDB(conn), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrDriver, p.Driver)
	}
}

func normalizeDriver(name string) string {
	switch strings.ToLower(name) {
	case "", "sqlserver", "mssql":
		return DriverSQLServer
	case "postgres", "postgresql", "pgx":
		return DriverPostgres
	case "mysql", "mariadb":
		return DriverMySQL
	default:
		return name
	}
}

// SQLServerDSN builds a sqlserver:// connection URL.
func SQLServerDSN(p check.RelationalParams) string {
	q := url.Values{}
	if p.Database != "" {
		q.Set("database", p.Database)
	}
	if secs := int(p.Timeout.Seconds()); secs > 0 {
		q.Set("connection timeout", strconv.Itoa(secs))
		q.Set("dial timeout", strconv.Itoa(secs))
	}

	u := &url.URL{Scheme: "sqlserver", Host: hostPort(p.Server, p.Port), RawQuery: q.Encode()}
	if !p.IntegratedSecurity() {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u.String()
}

// PostgresDSN builds a postgres:// connection URL.
func PostgresDSN(p check.RelationalParams) string {
	q := url.Values{}
	if secs := int(p.Timeout.Seconds()); secs > 0 {
		q.Set("connect_timeout", strconv.Itoa(secs))
	}

	u := &url.URL{
		Scheme:   "postgres",
		Host:     hostPort(p.Server, p.Port),
		Path:     "/" + p.Database,
		RawQuery: q.Encode(),
	}
	if !p.IntegratedSecurity() {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u.String()
}

// MySQLConfig builds a driver configuration for p.
func MySQLConfig(p check.RelationalParams) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	port := p.Port
	if port == 0 {
		port = 3306
	}
	cfg.Addr = hostPort(p.Server, port)
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.DBName = p.Database
	cfg.Timeout = p.Timeout
	cfg.ReadTimeout = p.Timeout
	cfg.ParseTime = true
	return cfg
}

func hostPort(server string, port int) string {
	if port == 0 {
		return server
	}
	return net.JoinHostPort(server, strconv.Itoa(port))
}
