// Package warehouse runs query checks against a Snowflake account.
//
// One adapter is pooled per account; see Key.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/snowflakedb/gosnowflake"

	"github.com/jonwraymond/datasentry/backend"
	"github.com/jonwraymond/datasentry/check"
)

// ErrAuthenticator is returned for an unsupported authenticator name.
var ErrAuthenticator = errors.New("warehouse: unsupported authenticator")

// Key returns the pool key for p.
func Key(p check.WarehouseParams) string {
	return "warehouse:" + strings.ToLower(p.Account)
}

// Config maps check parameters onto a driver configuration.
func Config(p check.WarehouseParams) (*gosnowflake.Config, error) {
	cfg := &gosnowflake.Config{
		Account:   p.Account,
		User:      p.User,
		Password:  p.Password,
		Database:  p.Database,
		Schema:    p.Schema,
		Warehouse: p.Warehouse,
		Role:      p.Role,
		Token:     p.Token,
	}

	switch strings.ToLower(p.Authenticator) {
	case "", "snowflake":
		cfg.Authenticator = gosnowflake.AuthTypeSnowflake
		if p.Token != "" && p.Password == "" {
			cfg.Authenticator = gosnowflake.AuthTypeOAuth
		}
	case "oauth":
		cfg.Authenticator = gosnowflake.AuthTypeOAuth
	case "externalbrowser":
		cfg.Authenticator = gosnowflake.AuthTypeExternalBrowser
	case "username_password_mfa":
		cfg.Authenticator = gosnowflake.AuthTypeUsernamePasswordMFA
	default:
		return nil, fmt.Errorf("%w: %q", ErrAuthenticator, p.Authenticator)
	}
	return cfg, nil
}

// New creates an unopened adapter for the account named in p.
func New(p check.WarehouseParams) *backend.SQLAdapter {
	return backend.NewSQLAdapter(check.KindWarehouse, func(context.Context) (*sql.DB, error) {
		cfg, err := Config(p)
		if err != nil {
			return nil, err
		}
		dsn, err := gosnowflake.DSN(cfg)
		if err != nil {
			return nil, fmt.Errorf("warehouse: build dsn: %w", err)
		}
		return sql.Open("snowflake", dsn)
	})
}

// Factory returns a pool factory for p.
func Factory(p check.WarehouseParams) backend.Factory {
	return func() (backend.Adapter, error) {
		return New(p), nil
	}
}
