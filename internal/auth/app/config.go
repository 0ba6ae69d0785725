package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	AlgorithmHS256 = "HS256"
	AlgorithmEdDSA = "EdDSA"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// RateLimitOverride replaces fields of an in-process rate limit profile.
// Zero values keep the built-in profile.
type RateLimitOverride struct {
	Requests  int
	WindowSec int
	Burst     int
}

// Config holds application configuration loaded from the environment.
type Config struct {
	Env       string `mapstructure:"ENV"`       // dev, staging, prod (default: dev)
	Debug     bool   `mapstructure:"DEBUG"`     // Detailed 403 bodies, no X-Request-ID requirement
	LogLevel  string `mapstructure:"LOG_LEVEL"` // debug, info, warn, error (default: info)
	LogFormat string `mapstructure:"LOG_FORMAT"`

	Port                int           `mapstructure:"PORT"`
	ShutdownGracePeriod time.Duration `mapstructure:"SHUTDOWN_GRACE_PERIOD"`

	Issuer string `mapstructure:"AUTH_ISSUER"`
	// Algorithm is HS256 (SECRET_KEY) or EdDSA (AUTH_SIGNING_KEY_FILE).
	Algorithm      string        `mapstructure:"AUTH_ALGORITHM"`
	SecretKey      string        `mapstructure:"SECRET_KEY"`
	SigningKeyFile string        `mapstructure:"AUTH_SIGNING_KEY_FILE"`
	KeyID          string        `mapstructure:"AUTH_KEY_ID"`
	AccessTTL      time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTTL     time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`

	// RequestLimitPerMinute caps calls per access token. 0 disables the limit.
	RequestLimitPerMinute int `mapstructure:"REQUEST_LIMIT_PER_MINUTE"`

	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     int    `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	PepperFile     string `mapstructure:"AUTH_PEPPER_FILE"`

	HistoryRetention     time.Duration `mapstructure:"HISTORY_RETENTION"`
	HousekeepingInterval time.Duration `mapstructure:"HOUSEKEEPING_INTERVAL"`

	// Admin seeded on startup when ADMIN_EMAIL is set.
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
	AdminOrgName  string `mapstructure:"ADMIN_ORG_NAME"`
	AdminOrgSlug  string `mapstructure:"ADMIN_ORG_SLUG"`

	EnableTracer bool   `mapstructure:"ENABLE_TRACER"`
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	RateLimitStrict   RateLimitOverride `mapstructure:"-"`
	RateLimitModerate RateLimitOverride `mapstructure:"-"`
	RateLimitLenient  RateLimitOverride `mapstructure:"-"`
	RateLimitPublic   RateLimitOverride `mapstructure:"-"`
}

var rateLimitProfiles = []string{"STRICT", "MODERATE", "LENIENT", "PUBLIC"}

// LoadConfig reads .env (if present), then builds and validates Config from
// the environment via Viper. Env vars override .env.
func LoadConfig() (Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("ENV", "dev")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("PORT", 8080)
	v.SetDefault("SHUTDOWN_GRACE_PERIOD", "10s")
	v.SetDefault("AUTH_ISSUER", "auth-service")
	v.SetDefault("AUTH_ALGORITHM", AlgorithmHS256)
	v.SetDefault("SECRET_KEY", "")
	v.SetDefault("AUTH_SIGNING_KEY_FILE", "")
	v.SetDefault("AUTH_KEY_ID", "auth-1")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "720h") // 30d
	v.SetDefault("REQUEST_LIMIT_PER_MINUTE", 20)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_URL", "auth.db")
	v.SetDefault("AUTH_PEPPER_FILE", "")
	v.SetDefault("HISTORY_RETENTION", "2160h") // 90d
	v.SetDefault("HOUSEKEEPING_INTERVAL", "1h")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_ORG_NAME", "Administration")
	v.SetDefault("ADMIN_ORG_SLUG", "admin")
	v.SetDefault("ENABLE_TRACER", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	for _, p := range rateLimitProfiles {
		v.SetDefault("RATELIMIT_"+p+"_REQUESTS", 0)
		v.SetDefault("RATELIMIT_"+p+"_WINDOW_SEC", 0)
		v.SetDefault("RATELIMIT_"+p+"_BURST", 0)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	override := func(profile string) RateLimitOverride {
		return RateLimitOverride{
			Requests:  v.GetInt("RATELIMIT_" + profile + "_REQUESTS"),
			WindowSec: v.GetInt("RATELIMIT_" + profile + "_WINDOW_SEC"),
			Burst:     v.GetInt("RATELIMIT_" + profile + "_BURST"),
		}
	}
	cfg.RateLimitStrict = override("STRICT")
	cfg.RateLimitModerate = override("MODERATE")
	cfg.RateLimitLenient = override("LENIENT")
	cfg.RateLimitPublic = override("PUBLIC")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid or missing setting.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("config: PORT must be between 1 and 65535")
	}

	switch c.Algorithm {
	case AlgorithmHS256:
		if c.SecretKey == "" {
			return errors.New("config: SECRET_KEY must be set when AUTH_ALGORITHM=HS256")
		}
	case AlgorithmEdDSA:
		if c.SigningKeyFile == "" {
			return errors.New("config: AUTH_SIGNING_KEY_FILE must be set when AUTH_ALGORITHM=EdDSA")
		}
	default:
		return fmt.Errorf("config: AUTH_ALGORITHM must be %s or %s", AlgorithmHS256, AlgorithmEdDSA)
	}

	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("config: ACCESS_TOKEN_TTL and REFRESH_TOKEN_TTL must be positive")
	}
	if c.RefreshTTL < c.AccessTTL {
		return errors.New("config: REFRESH_TOKEN_TTL must not be shorter than ACCESS_TOKEN_TTL")
	}
	if c.RequestLimitPerMinute < 0 {
		return errors.New("config: REQUEST_LIMIT_PER_MINUTE must not be negative")
	}

	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("config: DATABASE_DRIVER must be %s or %s", DriverSQLite, DriverPostgres)
	}
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL must be set")
	}

	if c.AdminEmail != "" && c.AdminPassword == "" {
		return errors.New("config: ADMIN_PASSWORD must be set when ADMIN_EMAIL is set")
	}
	if c.EnableTracer && strings.TrimSpace(c.OTLPEndpoint) == "" {
		return errors.New("config: OTEL_EXPORTER_OTLP_ENDPOINT must be set when ENABLE_TRACER=true")
	}

	return nil
}

// RedisAddr is the host:port of the Redis server.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// RequireRequestID reports whether requests must carry X-Request-ID.
func (c *Config) RequireRequestID() bool {
	return c.EnableTracer && !c.Debug
}

// Window is the override window as a duration.
func (o RateLimitOverride) Window() time.Duration {
	return time.Duration(o.WindowSec) * time.Second
}
