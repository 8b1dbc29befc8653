package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	// Config holds configuration settings for the appflow service
	Config struct {
		// API Server
		APIHost         string        `env:"API_HOST"`
		APIPort         int           `env:"API_PORT"`
		LogLevel        string        `env:"LOG_LEVEL"`
		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`

		// Player
		TrustedOrigins []string `env:"TRUSTED_ORIGINS" envSeparator:","`

		// Stores & Sessions
		Store StoreConfig
		Auth  AuthConfig
	}

	// StoreConfig selects and configures the flow document backend
	StoreConfig struct {
		Backend string `env:"STORE_BACKEND"`
		Redis   RedisConfig
		Blob    BlobConfig
	}

	// RedisConfig configures the Redis flow store
	RedisConfig struct {
		Addr     string `env:"REDIS_ADDR"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB"`
		Prefix   string `env:"REDIS_PREFIX"`
	}

	// BlobConfig configures the bucket-backed flow store
	BlobConfig struct {
		BucketURL string `env:"BLOB_BUCKET_URL"`
		Prefix    string `env:"BLOB_PREFIX"`
	}

	// AuthConfig holds the administrator credentials and session settings
	AuthConfig struct {
		Username  string        `env:"ADMIN_USERNAME"`
		Password  string        `env:"ADMIN_PASSWORD"`
		Email     string        `env:"ADMIN_EMAIL"`
		Secret    string        `env:"AUTH_SECRET"`
		MaxAge    time.Duration `env:"SESSION_MAX_AGE"`
		UpdateAge time.Duration `env:"SESSION_UPDATE_AGE"`
	}
)

const (
	StoreBackendRedis = "redis"
	StoreBackendBlob  = "blob"

	DefaultAPIPort         = 8080
	DefaultAPIHost         = "0.0.0.0"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultTrustedOrigin   = "https://assessmentdev.curiouscontent.org"
	MaxTCPPort             = 65535

	DefaultRedisEndpoint = "localhost:6379"
	DefaultRedisPrefix   = "appflow"
	DefaultRedisDB       = 0
	DefaultBlobPrefix    = ""

	DefaultAdminEmail       = "crframeadmin@curiouslearning.org"
	DefaultSessionMaxAge    = 30 * 24 * time.Hour
	DefaultSessionUpdateAge = 24 * time.Hour
)

var (
	ErrInvalidAPIPort          = errors.New("invalid API port")
	ErrInvalidShutdownTimeout  = errors.New("shutdown timeout must be positive")
	ErrNoTrustedOrigins        = errors.New("trusted origin required")
	ErrInvalidTrustedOrigin    = errors.New("invalid trusted origin")
	ErrInvalidStoreBackend     = errors.New("invalid store backend")
	ErrRedisAddrRequired       = errors.New("redis address is required")
	ErrBlobBucketRequired      = errors.New("blob bucket URL is required")
	ErrAdminCredentials        = errors.New("admin credentials are required")
	ErrAuthSecretRequired      = errors.New("auth secret is required")
	ErrInvalidSessionMaxAge    = errors.New("session max age must be positive")
	ErrInvalidSessionUpdateAge = errors.New("invalid session update age")
)

// NewDefaultConfig creates a configuration with sensible defaults for the
// server, player, and Redis store. Admin credentials have no defaults
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:         DefaultAPIHost,
		APIPort:         DefaultAPIPort,
		LogLevel:        "info",
		ShutdownTimeout: DefaultShutdownTimeout,
		TrustedOrigins:  []string{DefaultTrustedOrigin},
		Store: StoreConfig{
			Backend: StoreBackendRedis,
			Redis: RedisConfig{
				Addr:   DefaultRedisEndpoint,
				DB:     DefaultRedisDB,
				Prefix: DefaultRedisPrefix,
			},
			Blob: BlobConfig{
				Prefix: DefaultBlobPrefix,
			},
		},
		Auth: AuthConfig{
			Email:     DefaultAdminEmail,
			MaxAge:    DefaultSessionMaxAge,
			UpdateAge: DefaultSessionUpdateAge,
		},
	}
}

// LoadFromEnv overlays values found in environment variables onto the
// config. Unset variables leave the current values in place
func (c *Config) LoadFromEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	c.TrustedOrigins = normalizeOrigins(c.TrustedOrigins)
	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	if err := validateOrigins(c.TrustedOrigins); err != nil {
		return err
	}

	if err := c.Store.Validate(); err != nil {
		return err
	}

	return c.Auth.Validate()
}

// Validate checks the selected backend has what it needs
func (s *StoreConfig) Validate() error {
	switch s.Backend {
	case StoreBackendRedis:
		if s.Redis.Addr == "" {
			return ErrRedisAddrRequired
		}
	case StoreBackendBlob:
		if s.Blob.BucketURL == "" {
			return ErrBlobBucketRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidStoreBackend, s.Backend)
	}
	return nil
}

// Validate checks credentials and session lifetimes
func (a *AuthConfig) Validate() error {
	if a.Username == "" || a.Password == "" {
		return ErrAdminCredentials
	}
	if a.Secret == "" {
		return ErrAuthSecretRequired
	}
	if a.MaxAge <= 0 {
		return ErrInvalidSessionMaxAge
	}
	if a.UpdateAge < 0 || a.UpdateAge > a.MaxAge {
		return ErrInvalidSessionUpdateAge
	}
	return nil
}

func validateOrigins(origins []string) error {
	if len(origins) == 0 {
		return ErrNoTrustedOrigins
	}
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Scheme == "" || u.Host == "" ||
			(u.Path != "" && u.Path != "/") {
			return fmt.Errorf("%w: %q", ErrInvalidTrustedOrigin, o)
		}
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	res := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			res = append(res, o)
		}
	}
	return res
}
