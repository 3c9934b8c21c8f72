// Package config loads the dframe configuration from YAML, .env files and
// environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environments recognised by App.Environment
const (
	EnvLocal       = "local"
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Store drivers
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config represents the application configuration structure
type Config struct {
	App       AppConfig       `yaml:"app" env:"APP"`
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	Logger    LoggerConfig    `yaml:"logger" env:"LOGGER"`
	Router    RouterConfig    `yaml:"router" env:"ROUTER"`
	JWT       JWTConfig       `yaml:"jwt" env:"JWT"`
	RateLimit RateLimitConfig `yaml:"rate_limit" env:"RATE_LIMIT"`
	Store     StoreConfig     `yaml:"store" env:"STORE"`
	Metrics   MetricsConfig   `yaml:"metrics" env:"METRICS"`
}

// AppConfig holds application identity and mode
type AppConfig struct {
	Name        string `yaml:"name" env:"NAME" default:"dframe" validate:"required"`
	Environment string `yaml:"environment" env:"ENVIRONMENT" default:"production"`
	Debug       bool   `yaml:"debug" env:"DEBUG" default:"false"`
	Timezone    string `yaml:"timezone" env:"TIMEZONE" default:"UTC"`
	// Maintenance answers every request with 503 except for allow-listed IPs
	Maintenance MaintenanceConfig `yaml:"maintenance" env:"MAINTENANCE"`
}

// MaintenanceConfig describes a maintenance window
type MaintenanceConfig struct {
	Enabled    bool          `yaml:"enabled" env:"ENABLED" default:"false"`
	Start      time.Time     `yaml:"start"`
	End        time.Time     `yaml:"end"`
	RetryAfter time.Duration `yaml:"retry_after" env:"RETRY_AFTER" default:"1h"`
	AllowIPs   []string      `yaml:"allow_ips" env:"ALLOW_IPS" default:"127.0.0.1,::1" validate:"dive,ip"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address         string        `yaml:"address" env:"ADDRESS" default:":8080" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" default:"30s"`
	BodyLimit       string        `yaml:"body_limit" env:"BODY_LIMIT" default:"4M"`
	GZip            bool          `yaml:"gzip" env:"GZIP" default:"true"`
	CORS            bool          `yaml:"cors" env:"CORS" default:"true"`
	Recovery        bool          `yaml:"recovery" env:"RECOVERY" default:"true"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level            string   `yaml:"level" env:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Encoding         string   `yaml:"encoding" env:"ENCODING" default:"json" validate:"oneof=json console"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS" default:"stdout"`
	ErrorOutputPaths []string `yaml:"error_output_paths" env:"ERROR_OUTPUT_PATHS" default:"stderr"`
}

// RouterConfig holds dispatcher settings
type RouterConfig struct {
	BasePath       string `yaml:"base_path" env:"BASE_PATH"`
	BaseURL        string `yaml:"base_url" env:"BASE_URL" validate:"omitempty,url"`
	MethodOverride bool   `yaml:"method_override" env:"METHOD_OVERRIDE" default:"true"`
	// TrustedProxies are the IPs and CIDR ranges allowed to set
	// X-Forwarded-For and X-Forwarded-Proto
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" validate:"dive,ip|cidr"`
	// Manifest is an optional YAML route manifest loaded at startup
	Manifest string `yaml:"manifest" env:"MANIFEST"`
}

// JWTConfig holds JWT authentication configuration
type JWTConfig struct {
	SecretKey       string        `yaml:"secret_key" env:"SECRET_KEY" resource:".jwt-secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" default:"1h"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" default:"168h"`
	Issuer          string        `yaml:"issuer" env:"ISSUER" default:"dframe"`
}

// RateLimitConfig holds the per-client request budget
type RateLimitConfig struct {
	Rate  float64 `yaml:"rate" env:"RATE" default:"10" validate:"gte=0"`
	Burst int     `yaml:"burst" env:"BURST" default:"20" validate:"gte=0"`
	// IdleTTL evicts limiters of clients silent for that long
	IdleTTL time.Duration `yaml:"idle_ttl" env:"IDLE_TTL" default:"10m"`
}

// StoreConfig selects the record store backend
type StoreConfig struct {
	Driver string      `yaml:"driver" env:"DRIVER" default:"memory" validate:"oneof=memory redis"`
	Redis  RedisConfig `yaml:"redis" env:"REDIS"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addrs     []string `yaml:"addrs" env:"ADDRS" default:"localhost:6379"`
	Password  string   `yaml:"password" env:"PASSWORD"`
	DB        int      `yaml:"db" env:"DB" default:"0"`
	KeyPrefix string   `yaml:"key_prefix" env:"KEY_PREFIX" default:"dframe:"`
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED" default:"true"`
	Path    string `yaml:"path" env:"PATH" default:"/metrics" validate:"startswith=/"`
}

// Loader interface for configuration loading
type Loader interface {
	Load(cfg *Config) error
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "dframe",
			Environment: EnvProduction,
			Timezone:    "UTC",
			Maintenance: MaintenanceConfig{
				RetryAfter: time.Hour,
				AllowIPs:   []string{"127.0.0.1", "::1"},
			},
		},
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			BodyLimit:       "4M",
			GZip:            true,
			CORS:            true,
			Recovery:        true,
		},
		Logger: LoggerConfig{
			Level:            "info",
			Encoding:         "json",
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
		},
		Router: RouterConfig{
			MethodOverride: true,
		},
		JWT: JWTConfig{
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			Issuer:          "dframe",
		},
		RateLimit: RateLimitConfig{
			Rate:    10,
			Burst:   20,
			IdleTTL: 10 * time.Minute,
		},
		Store: StoreConfig{
			Driver: StoreMemory,
			Redis: RedisConfig{
				Addrs:     []string{"localhost:6379"},
				KeyPrefix: "dframe:",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

var validate = validator.New()

// Normalize applies the environment rules: unknown environments fall back to
// production, and production never runs in debug mode.
func (c *Config) Normalize() {
	switch c.App.Environment {
	case EnvLocal, EnvDevelopment, EnvStaging, EnvProduction:
	default:
		c.App.Environment = EnvProduction
	}
	if c.App.Environment == EnvProduction {
		c.App.Debug = false
	}
}

// Validate normalizes the configuration and checks its constraints
func (c *Config) Validate() error {
	c.Normalize()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Store.Driver == StoreRedis && len(c.Store.Redis.Addrs) == 0 {
		return fmt.Errorf("invalid configuration: redis store requires at least one address")
	}
	if m := c.App.Maintenance; !m.Start.IsZero() && !m.End.IsZero() && m.End.Before(m.Start) {
		return fmt.Errorf("invalid configuration: maintenance window ends before it starts")
	}
	return nil
}

// IsProduction reports whether the application runs in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}
