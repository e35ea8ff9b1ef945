// Package config provides application configuration management using Viper.
// Configuration is loaded from YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache backends.
const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	RapidAPI  RapidAPIConfig  `mapstructure:"rapidapi"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Warmup    WarmupConfig    `mapstructure:"warmup"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"` // development, staging, production
	Port  int    `mapstructure:"port"`
	Debug bool   `mapstructure:"debug"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Name         string        `mapstructure:"name"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	SSLMode      string        `mapstructure:"ssl_mode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
	LogQueries   bool          `mapstructure:"log_queries"`
}

// RapidAPIConfig holds the movie API settings.
// Key may be empty; calls that need it then fail individually.
type RapidAPIConfig struct {
	BaseURL string   `mapstructure:"base_url"`
	Key     string   `mapstructure:"key"`
	Host    string   `mapstructure:"host"`
	CB      CBConfig `mapstructure:"circuit_breaker"`
}

// CBConfig holds circuit breaker settings.
type CBConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Backend            string        `mapstructure:"backend"` // redis, memory
	KeyPrefix          string        `mapstructure:"key_prefix"`
	TitleTTL           time.Duration `mapstructure:"title_ttl"`
	ListTTL            time.Duration `mapstructure:"list_ttl"`
	PopularConcurrency int           `mapstructure:"popular_concurrency"`
}

// BroadcastConfig holds realtime notification settings.
type BroadcastConfig struct {
	ChannelPrefix string `mapstructure:"channel_prefix"`
	Relay         bool   `mapstructure:"relay"` // fan out across instances via Redis pub/sub
	BufferSize    int    `mapstructure:"buffer_size"`
}

// AuthConfig holds request identity settings.
type AuthConfig struct {
	UserHeader string `mapstructure:"user_header"`
	AdminToken string `mapstructure:"admin_token"`
}

// WarmupConfig holds popular-list warmup job settings.
type WarmupConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Limit     int           `mapstructure:"limit"`
	OnStartup bool          `mapstructure:"on_startup"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, file path
}

// SentryConfig holds Sentry error tracking settings.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis host:port address.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration from file and environment variables.
// Priority: env vars > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found, continue with defaults + env vars
	}

	// Environment variable settings
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that have no usable fallback.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendRedis, CacheBackendMemory:
	default:
		return fmt.Errorf("invalid cache.backend %q: want %s or %s", c.Cache.Backend, CacheBackendRedis, CacheBackendMemory)
	}

	if c.Cache.TitleTTL <= 0 || c.Cache.ListTTL <= 0 {
		return errors.New("cache.title_ttl and cache.list_ttl must be positive")
	}

	if c.Auth.UserHeader == "" {
		return errors.New("auth.user_header must not be empty")
	}

	if c.Warmup.Enabled && (c.Warmup.Interval <= 0 || c.Warmup.Limit <= 0) {
		return errors.New("warmup.interval and warmup.limit must be positive when warmup is enabled")
	}

	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "watchlist-service")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.debug", true)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "watchlist")
	v.SetDefault("database.user", "app")
	v.SetDefault("database.password", "secret")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", "5m")
	v.SetDefault("database.log_queries", false)

	// RapidAPI defaults
	v.SetDefault("rapidapi.base_url", "https://imdb8.p.rapidapi.com")
	v.SetDefault("rapidapi.key", "")
	v.SetDefault("rapidapi.host", "imdb8.p.rapidapi.com")
	v.SetDefault("rapidapi.circuit_breaker.enabled", true)
	v.SetDefault("rapidapi.circuit_breaker.max_requests", 3)
	v.SetDefault("rapidapi.circuit_breaker.interval", "60s")
	v.SetDefault("rapidapi.circuit_breaker.timeout", "30s")
	v.SetDefault("rapidapi.circuit_breaker.failure_ratio", 0.5)

	// Cache defaults
	v.SetDefault("cache.backend", CacheBackendRedis)
	v.SetDefault("cache.key_prefix", "watchlist")
	v.SetDefault("cache.title_ttl", "1h")
	v.SetDefault("cache.list_ttl", "10m")
	v.SetDefault("cache.popular_concurrency", 4)

	// Broadcast defaults
	v.SetDefault("broadcast.channel_prefix", "watchlist:broadcast")
	v.SetDefault("broadcast.relay", false)
	v.SetDefault("broadcast.buffer_size", 16)

	// Auth defaults
	v.SetDefault("auth.user_header", "X-User-ID")
	v.SetDefault("auth.admin_token", "")

	// Warmup defaults
	v.SetDefault("warmup.enabled", false)
	v.SetDefault("warmup.interval", "10m")
	v.SetDefault("warmup.timeout", "2m")
	v.SetDefault("warmup.limit", 15)
	v.SetDefault("warmup.on_startup", true)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	// Sentry defaults
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
}
