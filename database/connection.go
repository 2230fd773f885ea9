package database

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"go-rbac-admin/pkg/log"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const slowQueryThreshold = 200 * time.Millisecond

type Config interface {
	Driver() string
	Host() string
	Port() string
	User() string
	Password() string
	Name() string
	SSLMode() string
	MaxOpenConns() int
	MaxIdleConns() int
	ConnMaxLifetime() time.Duration
	EnableLog() bool
	LogLevel() string
}

// postgresURL builds the connection URL. Credentials are escaped, so
// passwords with spaces or '@' survive.
func postgresURL(cfg Config) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User(), cfg.Password()),
		Host:     net.JoinHostPort(cfg.Host(), cfg.Port()),
		Path:     "/" + cfg.Name(),
		RawQuery: url.Values{"sslmode": {cfg.SSLMode()}}.Encode(),
	}
	return u.String()
}

func dialector(cfg Config) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver()) {
	case DriverPostgres, "":
		return postgres.New(postgres.Config{
			DSN:                  postgresURL(cfg),
			PreferSimpleProtocol: true,
		}), nil
	case DriverSQLite:
		// Name is the database file path, or ":memory:".
		return sqlite.Open(cfg.Name()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver())
	}
}

// Connect opens the RBAC store. Queries are logged through l at the
// configured level, and queries slower than slowQueryThreshold are always
// reported as warnings unless logging is off.
func Connect(cfg Config, l log.Logger) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := "silent"
	if cfg.EnableLog() {
		level = cfg.LogLevel()
	}
	db, err := gorm.Open(d, &gorm.Config{
		Logger:         NewQueryLogger(l, level, slowQueryThreshold),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(cfg.Driver(), DriverSQLite) {
		// one writer at a time
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns())
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns())
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime())
	return db, nil
}
