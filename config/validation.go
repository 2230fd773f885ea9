package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go-rbac-admin/domain"

	"github.com/samber/lo"
)

const minProductionSecretLen = 32

var (
	environments   = []string{LocalEnv, DevelopmentEnv, ProductionEnv}
	dbDrivers      = []string{"postgres", "sqlite"}
	sslModes       = []string{"disable", "require", "verify-ca", "verify-full"}
	gormLogLevels  = []string{"silent", "error", "warn", "info"}
	cacheProviders = []string{"memory", "redis"}
	logLevels      = []string{"debug", "info", "warn", "error", "fatal"}
	logFormats     = []string{"json", "console"}
)

// report collects every problem of one config section so a bad deployment
// is fixed in one pass instead of one restart per mistake.
type report struct {
	section string
	errs    []error
}

func (r *report) require(ok bool, format string, args ...any) {
	if !ok {
		r.errs = append(r.errs, fmt.Errorf(r.section+": "+format, args...))
	}
}

func (r *report) oneOf(value, field string, allowed []string) {
	r.require(lo.Contains(allowed, value), "%s must be one of %s, got %q", field, strings.Join(allowed, ", "), value)
}

// Validate checks the loaded configuration and returns all problems found,
// joined.
func Validate(cfg Config) error {
	var errs []error
	for _, section := range []struct {
		name  string
		check func(*report)
	}{
		{"app", func(r *report) { validateApp(r, cfg.App()) }},
		{"server", func(r *report) { validateServer(r, cfg.Server()) }},
		{"database", func(r *report) { validateDatabase(r, cfg.Database()) }},
		{"cache", func(r *report) { validateCache(r, cfg.Cache()) }},
		{"redis", func(r *report) {
			// only read when redis backs the rate limit counters
			if cfg.Cache().Provider() == "redis" {
				validateRedis(r, cfg.Redis())
			}
		}},
		{"rate_limit", func(r *report) { validateRateLimit(r, cfg.RateLimit()) }},
		{"logger", func(r *report) { validateLogger(r, cfg.Logger()) }},
		{"access", func(r *report) { validateAccess(r, cfg.Access()) }},
	} {
		r := &report{section: section.name}
		section.check(r)
		errs = append(errs, r.errs...)
	}
	return errors.Join(errs...)
}

func validateApp(r *report, cfg AppConfig) {
	r.require(lo.Contains(environments, cfg.Environment()),
		"ENV=%s is invalid, only accept %s", cfg.Environment(), strings.Join(environments, ", "))
	r.require(cfg.TokenIssuer() != "", "token_issuer is required")
	r.require(cfg.AccessTokenExpiresIn() > 0, "access_token_expires_in must be positive")

	secret := cfg.AccessTokenSecret()
	r.require(secret != "", "access token secret is required, please set ACCESS_TOKEN_SECRET")
	if secret != "" && cfg.IsProduction() {
		r.require(len(secret) >= minProductionSecretLen,
			"access token secret must be at least %d characters in production", minProductionSecretLen)
	}

	r.require(cfg.BcryptCost() >= 4 && cfg.BcryptCost() <= 31, "bcrypt_cost must be between 4 and 31")
	r.require((cfg.SystemAdminDefaultEmail() == "") == (cfg.SystemAdminDefaultPassword() == ""),
		"SYSTEM_ADMIN_DEFAULT_EMAIL and SYSTEM_ADMIN_DEFAULT_PASSWORD must be set together")
}

func validateServer(r *report, cfg ServerConfig) {
	host := cfg.Host()
	r.require(host == "localhost" || net.ParseIP(host) != nil, "host %q must be an IP address or localhost", host)
	r.require(validPort(cfg.Port()), "port must be between 1 and 65535")
	r.require(cfg.ReadTimeout() > 0, "read_timeout must be positive")
	r.require(cfg.WriteTimeout() > 0, "write_timeout must be positive")
	r.require(cfg.ShutdownTimeout() > 0, "shutdown_timeout must be positive")

	for _, origin := range cfg.AllowedOrigins() {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		r.require(err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" && u.Path == "",
			"allowed origin %q must be scheme://host[:port]", origin)
	}
}

func validateDatabase(r *report, cfg DatabaseConfig) {
	r.oneOf(cfg.Driver(), "database driver", dbDrivers)
	r.require(cfg.Name() != "", "database name is required")
	if cfg.Driver() != "postgres" {
		return
	}

	port, err := strconv.Atoi(cfg.Port())
	r.require(err == nil && validPort(port), "database port %q must be between 1 and 65535", cfg.Port())
	r.require(cfg.Host() != "", "database host is required")
	r.require(cfg.User() != "", "database user is required")
	r.require(cfg.Password() != "", "database password is required")
	r.require(cfg.MaxOpenConns() > 0, "max_open_conns must be positive")
	r.require(cfg.MaxIdleConns() > 0 && cfg.MaxIdleConns() <= cfg.MaxOpenConns(),
		"max_idle_conns must be positive and at most max_open_conns")
	r.require(cfg.ConnMaxLifetime() > 0, "conn_max_lifetime must be positive")
	r.oneOf(cfg.SSLMode(), "ssl_mode", sslModes)
	if cfg.EnableLog() {
		r.oneOf(cfg.LogLevel(), "log_level", gormLogLevels)
	}
}

func validateCache(r *report, cfg CacheConfig) {
	r.oneOf(cfg.Provider(), "cache provider", cacheProviders)
	r.require(cfg.DefaultTTL() > 0, "default_ttl must be positive")
}

func validateRedis(r *report, cfg RedisConfig) {
	r.require(cfg.Host() != "", "redis host is required")
	r.require(validPort(cfg.Port()), "redis port must be between 1 and 65535")
	r.require(cfg.DB() >= 0 && cfg.DB() <= 15, "redis db must be between 0 and 15")
}

func validateRateLimit(r *report, cfg RateLimitConfig) {
	r.require(cfg.GlobalMaxRequests() > 0, "global_max_requests must be positive")
	r.require(cfg.Window() >= time.Second, "window must be at least 1s")
}

func validateLogger(r *report, cfg LoggerConfig) {
	r.oneOf(strings.ToLower(cfg.Level()), "log level", logLevels)
	r.oneOf(strings.ToLower(cfg.Format()), "log format", logFormats)
	r.require(cfg.OutputPath() != "", "output_path is required")
	if cfg.OutputPath() == "stdout" || cfg.OutputPath() == "stderr" {
		return
	}
	r.require(cfg.MaxFileSizeMB() > 0, "max_file_size_mb must be positive")
	r.require(cfg.MaxFileAgeDays() > 0, "max_file_age_days must be positive")
	r.require(cfg.MaxBackupFiles() >= 0, "max_backup_files cannot be negative")
}

func validateAccess(r *report, cfg AccessConfig) {
	_, err := domain.ParseUntaggedPolicy(cfg.UntaggedPolicy())
	r.require(err == nil, "%v", err)
	r.require(strings.HasPrefix(cfg.DeniedRedirect(), "/"), "denied_redirect must be an absolute path")
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}
