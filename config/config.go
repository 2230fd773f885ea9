package config

import (
	"net"
	"strconv"
	"time"
)

const (
	LocalEnv       = "local"
	DevelopmentEnv = "development"
	ProductionEnv  = "production"
)

// Config is the admin service configuration. Each section is read through
// an interface so packages depend only on the settings they use.
type Config interface {
	App() AppConfig
	Server() ServerConfig
	Database() DatabaseConfig
	Redis() RedisConfig
	Cache() CacheConfig
	RateLimit() RateLimitConfig
	Logger() LoggerConfig
	Access() AccessConfig
}

// AppConfig covers identity, token issuing and the seeded system admin.
type AppConfig interface {
	Name() string
	Version() string
	Environment() string
	IsProduction() bool

	AccessTokenExpiresIn() time.Duration
	AccessTokenSecret() string
	TokenIssuer() string

	BcryptCost() int
	SystemAdminDefaultName() string
	SystemAdminDefaultEmail() string
	SystemAdminDefaultPassword() string
}

type ServerConfig interface {
	Host() string
	Port() int
	Address() string
	ReadTimeout() time.Duration
	WriteTimeout() time.Duration
	IdleTimeout() time.Duration
	ShutdownTimeout() time.Duration
	MaxHeaderBytes() int
	AllowedOrigins() []string
}

// DatabaseConfig satisfies database.Config.
type DatabaseConfig interface {
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

type RedisConfig interface {
	Host() string
	Port() int
	Address() string
	Password() string
	DB() int
}

// CacheConfig selects the store behind the rate limit counters.
type CacheConfig interface {
	Provider() string
	DefaultTTL() time.Duration
}

// RateLimitConfig bounds requests per client across the whole API.
type RateLimitConfig interface {
	GlobalMaxRequests() int
	Window() time.Duration
}

type LoggerConfig interface {
	Level() string
	Format() string
	OutputPath() string
	MaxFileSizeMB() int
	MaxFileAgeDays() int
	MaxBackupFiles() int
	IsCompressEnabled() bool
}

// AccessConfig tunes the route guard.
type AccessConfig interface {
	UntaggedPolicy() string
	DeniedRedirect() string
}

type config struct {
	AppCfg       appConfig       `yaml:"app"`
	ServerCfg    serverConfig    `yaml:"server"`
	DatabaseCfg  databaseConfig  `yaml:"database"`
	RedisCfg     redisConfig     `yaml:"redis"`
	CacheCfg     cacheConfig     `yaml:"cache"`
	RateLimitCfg rateLimitConfig `yaml:"rate_limit"`
	LoggerCfg    loggerConfig    `yaml:"logger"`
	AccessCfg    accessConfig    `yaml:"access"`
}

func (c *config) App() AppConfig             { return &c.AppCfg }
func (c *config) Server() ServerConfig       { return &c.ServerCfg }
func (c *config) Database() DatabaseConfig   { return &c.DatabaseCfg }
func (c *config) Redis() RedisConfig         { return &c.RedisCfg }
func (c *config) Cache() CacheConfig         { return &c.CacheCfg }
func (c *config) RateLimit() RateLimitConfig { return &c.RateLimitCfg }
func (c *config) Logger() LoggerConfig       { return &c.LoggerCfg }
func (c *config) Access() AccessConfig       { return &c.AccessCfg }

type appConfig struct {
	NameStr        string `yaml:"name" env-default:"go-rbac-admin"`
	VersionStr     string `yaml:"version" env-default:"1.0.0"`
	EnvironmentStr string `env:"ENV" env-default:"local"`

	TokenIssuerStr       string        `yaml:"token_issuer"`
	AccessTokenTTL       time.Duration `yaml:"access_token_expires_in" env-default:"1h"`
	AccessTokenSecretStr string        `env:"ACCESS_TOKEN_SECRET"`

	BcryptCostInt int `yaml:"bcrypt_cost" env-default:"10"`

	AdminName     string `yaml:"system_admin_default_name" env-default:"System Admin"`
	AdminEmail    string `env:"SYSTEM_ADMIN_DEFAULT_EMAIL"`
	AdminPassword string `env:"SYSTEM_ADMIN_DEFAULT_PASSWORD"`
}

func (c *appConfig) Name() string                        { return c.NameStr }
func (c *appConfig) Version() string                     { return c.VersionStr }
func (c *appConfig) Environment() string                 { return c.EnvironmentStr }
func (c *appConfig) IsProduction() bool                  { return c.EnvironmentStr == ProductionEnv }
func (c *appConfig) AccessTokenExpiresIn() time.Duration { return c.AccessTokenTTL }
func (c *appConfig) AccessTokenSecret() string           { return c.AccessTokenSecretStr }
func (c *appConfig) TokenIssuer() string                 { return c.TokenIssuerStr }
func (c *appConfig) BcryptCost() int                     { return c.BcryptCostInt }
func (c *appConfig) SystemAdminDefaultName() string      { return c.AdminName }
func (c *appConfig) SystemAdminDefaultEmail() string     { return c.AdminEmail }
func (c *appConfig) SystemAdminDefaultPassword() string  { return c.AdminPassword }

type serverConfig struct {
	HostStr           string        `yaml:"host" env-default:"0.0.0.0"`
	PortInt           int           `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeoutDur    time.Duration `yaml:"read_timeout" env-default:"15s"`
	WriteTimeoutDur   time.Duration `yaml:"write_timeout" env-default:"15s"`
	IdleTimeoutDur    time.Duration `yaml:"idle_timeout" env-default:"120s"`
	ShutdownDur       time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
	MaxHeaderBytesInt int           `yaml:"max_header_bytes" env-default:"1048576"`
	Origins           []string      `yaml:"allowed_origins"`
}

func (s *serverConfig) Host() string                   { return s.HostStr }
func (s *serverConfig) Port() int                      { return s.PortInt }
func (s *serverConfig) Address() string                { return net.JoinHostPort(s.HostStr, strconv.Itoa(s.PortInt)) }
func (s *serverConfig) ReadTimeout() time.Duration     { return s.ReadTimeoutDur }
func (s *serverConfig) WriteTimeout() time.Duration    { return s.WriteTimeoutDur }
func (s *serverConfig) IdleTimeout() time.Duration     { return s.IdleTimeoutDur }
func (s *serverConfig) ShutdownTimeout() time.Duration { return s.ShutdownDur }
func (s *serverConfig) MaxHeaderBytes() int            { return s.MaxHeaderBytesInt }
func (s *serverConfig) AllowedOrigins() []string       { return s.Origins }

type databaseConfig struct {
	DriverStr     string        `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	HostStr       string        `env:"POSTGRES_HOST" env-default:"localhost"`
	PortStr       string        `env:"POSTGRES_PORT" env-default:"5432"`
	UserStr       string        `env:"POSTGRES_USER" env-default:"postgres"`
	PasswordStr   string        `env:"POSTGRES_PASSWORD" env-default:"postgres"`
	NameStr       string        `yaml:"name" env:"POSTGRES_DBNAME" env-default:"postgres"`
	SSLModeStr    string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	MaxOpen       int           `yaml:"max_open_conns" env-default:"25"`
	MaxIdle       int           `yaml:"max_idle_conns" env-default:"10"`
	ConnLifetime  time.Duration `yaml:"conn_max_lifetime" env-default:"5m"`
	EnableLogging bool          `yaml:"enable_logging" env-default:"false"`
	QueryLogLevel string        `yaml:"log_level" env-default:"warn"`
}

func (d *databaseConfig) Driver() string   { return d.DriverStr }
func (d *databaseConfig) Host() string     { return d.HostStr }
func (d *databaseConfig) Port() string     { return d.PortStr }
func (d *databaseConfig) User() string     { return d.UserStr }
func (d *databaseConfig) Password() string { return d.PasswordStr }

// Name is the database name for postgres and the file path for sqlite.
func (d *databaseConfig) Name() string                   { return d.NameStr }
func (d *databaseConfig) SSLMode() string                { return d.SSLModeStr }
func (d *databaseConfig) MaxOpenConns() int              { return d.MaxOpen }
func (d *databaseConfig) MaxIdleConns() int              { return d.MaxIdle }
func (d *databaseConfig) ConnMaxLifetime() time.Duration { return d.ConnLifetime }
func (d *databaseConfig) EnableLog() bool                { return d.EnableLogging }
func (d *databaseConfig) LogLevel() string               { return d.QueryLogLevel }

type redisConfig struct {
	HostStr     string `env:"REDIS_HOST" env-default:"localhost"`
	PortInt     int    `env:"REDIS_PORT" env-default:"6379"`
	PasswordStr string `env:"REDIS_PASSWORD"`
	DBIndex     int    `env:"REDIS_DB" env-default:"0"`
}

func (r *redisConfig) Host() string     { return r.HostStr }
func (r *redisConfig) Port() int        { return r.PortInt }
func (r *redisConfig) Address() string  { return net.JoinHostPort(r.HostStr, strconv.Itoa(r.PortInt)) }
func (r *redisConfig) Password() string { return r.PasswordStr }
func (r *redisConfig) DB() int          { return r.DBIndex }

type cacheConfig struct {
	ProviderStr string        `yaml:"provider" env:"CACHE_PROVIDER" env-default:"memory"`
	TTL         time.Duration `yaml:"default_ttl" env-default:"5m"`
}

func (c *cacheConfig) Provider() string          { return c.ProviderStr }
func (c *cacheConfig) DefaultTTL() time.Duration { return c.TTL }

type rateLimitConfig struct {
	GlobalMax int           `yaml:"global_max_requests" env:"RATE_LIMIT_GLOBAL_MAX" env-default:"300"`
	WindowDur time.Duration `yaml:"window" env-default:"1m"`
}

func (r *rateLimitConfig) GlobalMaxRequests() int { return r.GlobalMax }
func (r *rateLimitConfig) Window() time.Duration  { return r.WindowDur }

type loggerConfig struct {
	LevelStr    string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	FormatStr   string `yaml:"format" env-default:"json"`
	Output      string `yaml:"output_path" env-default:"stdout"`
	MaxSizeMB   int    `yaml:"max_file_size_mb" env-default:"100"`
	MaxAgeDays  int    `yaml:"max_file_age_days" env-default:"30"`
	MaxBackups  int    `yaml:"max_backup_files" env-default:"10"`
	CompressOld bool   `yaml:"enable_compressed" env-default:"true"`
}

func (l *loggerConfig) Level() string  { return l.LevelStr }
func (l *loggerConfig) Format() string { return l.FormatStr }

// OutputPath is "stdout", "stderr" or a file path rotated by size.
func (l *loggerConfig) OutputPath() string      { return l.Output }
func (l *loggerConfig) MaxFileSizeMB() int      { return l.MaxSizeMB }
func (l *loggerConfig) MaxFileAgeDays() int     { return l.MaxAgeDays }
func (l *loggerConfig) MaxBackupFiles() int     { return l.MaxBackups }
func (l *loggerConfig) IsCompressEnabled() bool { return l.CompressOld }

type accessConfig struct {
	UntaggedPolicyStr string `yaml:"untagged_policy" env:"ACCESS_UNTAGGED_POLICY" env-default:"allow"`
	DeniedRedirectStr string `yaml:"denied_redirect" env-default:"/dashboard"`
}

func (a *accessConfig) UntaggedPolicy() string { return a.UntaggedPolicyStr }
func (a *accessConfig) DeniedRedirect() string { return a.DeniedRedirectStr }
