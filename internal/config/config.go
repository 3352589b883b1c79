package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override,
// e.g. SPECIMEN_BACKEND_BASE_URL.
const EnvPrefix = "SPECIMEN"

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Backend      BackendConfig      `mapstructure:"backend"`
	Search       SearchConfig       `mapstructure:"search"`
	Reference    ReferenceConfig    `mapstructure:"reference"`
	Session      SessionConfig      `mapstructure:"session"`
	Presentation PresentationConfig `mapstructure:"presentation"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Audit        AuditConfig        `mapstructure:"audit"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Log          LogConfig          `mapstructure:"log"`
	Worker       WorkerConfig       `mapstructure:"worker"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	Mode            string        `mapstructure:"mode"`
}

// BackendConfig points at the specimen backend API, including its version
// prefix, e.g. http://localhost:8080/api/v0_0_2.
type BackendConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	BreakerFailures  int           `mapstructure:"breaker_failures"`
	BreakerOpenFor   time.Duration `mapstructure:"breaker_open_for"`
	MaxResponseBytes int64         `mapstructure:"max_response_bytes"`
}

type SearchConfig struct {
	DefaultPerPage  int      `mapstructure:"default_per_page"`
	MaxPerPage      int      `mapstructure:"max_per_page"`
	AllowedCriteria []string `mapstructure:"allowed_criteria"`
}

type ReferenceConfig struct {
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type SessionConfig struct {
	CookieName   string        `mapstructure:"cookie_name"`
	CookieMaxAge time.Duration `mapstructure:"cookie_max_age"`
	SecureCookie bool          `mapstructure:"secure_cookie"`
}

type PresentationConfig struct {
	TimeLayout string `mapstructure:"time_layout"`
	TimeZone   string `mapstructure:"time_zone"`
}

// RedisConfig is optional; an empty URL disables audit publishing.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type AuditConfig struct {
	Channel         string        `mapstructure:"channel"`
	RetentionDays   int           `mapstructure:"retention_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// WorkerConfig is read by cmd/worker only.
type WorkerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 20*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.max_upload_bytes", 20<<20)
	v.SetDefault("server.mode", "release")

	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.breaker_failures", 5)
	v.SetDefault("backend.breaker_open_for", 30*time.Second)
	v.SetDefault("backend.max_response_bytes", 8<<20)

	v.SetDefault("search.default_per_page", 10)
	v.SetDefault("search.max_per_page", 100)
	v.SetDefault("search.allowed_criteria", []string{})

	v.SetDefault("reference.cache_ttl", 5*time.Minute)
	v.SetDefault("reference.cleanup_interval", 10*time.Minute)

	v.SetDefault("session.cookie_name", "token")
	v.SetDefault("session.cookie_max_age", 24*time.Hour)
	v.SetDefault("session.secure_cookie", false)

	v.SetDefault("presentation.time_layout", "2006-01-02 15:04:05")
	v.SetDefault("presentation.time_zone", "UTC")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "specimen_audit")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("audit.channel", "occurrence.audit")
	v.SetDefault("audit.retention_days", 90)
	v.SetDefault("audit.cleanup_interval", time.Hour)

	v.SetDefault("rate_limit.rps", 20.0)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("worker.health_port", 8081)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads .env (if present), then config.yaml from path (or "." and
// "./config" when path is empty), then SPECIMEN_* environment overrides.
// A missing config file is not an error. Each binary validates the
// sections it uses.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings the gateway and the CLI need.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("backend.timeout must be positive")
	}
	if c.Search.DefaultPerPage <= 0 {
		return errors.New("search.default_per_page must be positive")
	}
	if c.Search.MaxPerPage > 0 && c.Search.MaxPerPage < c.Search.DefaultPerPage {
		return errors.New("search.max_per_page must not be below search.default_per_page")
	}
	if _, err := time.LoadLocation(c.Presentation.TimeZone); err != nil {
		return fmt.Errorf("presentation.time_zone: %w", err)
	}
	// The session cookie travels cross-origin, so every origin must be named.
	for _, origin := range c.CORS.AllowedOrigins {
		if strings.TrimSpace(origin) == "*" {
			return errors.New(`cors.allowed_origins must list origins explicitly, "*" is not allowed with session cookies`)
		}
	}
	return nil
}

// ValidateWorker checks the settings the audit worker needs.
func (c *Config) ValidateWorker() error {
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Audit.Channel == "" {
		return errors.New("audit.channel is required")
	}
	if c.Database.Name == "" {
		return errors.New("database.name is required")
	}
	if c.Audit.CleanupInterval <= 0 {
		return errors.New("audit.cleanup_interval must be positive")
	}
	return nil
}
