package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StateStoreRedis  = "redis"
	StateStoreMemory = "memory"

	AuthBackendAppwrite = "appwrite"
	AuthBackendLocal    = "local"

	minSecretLength = 32
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Session   SessionConfig
	RateLimit RateLimitConfig
	Appwrite  AppwriteConfig
	Local     LocalAuthConfig
	Mongo     MongoConfig
	Redis     RedisConfig

	StateStore   string `env:"STATE_STORE,   default=redis"`
	AuthBackend  string `env:"AUTH_BACKEND,  default=appwrite"`
	AuditWorkers int    `env:"AUDIT_WORKERS, default=4"`
}

type SessionConfig struct {
	// Secret signs the portal session cookie.
	Secret      string        `env:"SESSION_SECRET"`
	TTL         time.Duration `env:"SESSION_TTL,  default=24h"`
	ProfilePath string        `env:"PROFILE_PATH, default=/profile"`
	SignInPath  string        `env:"SIGN_IN_PATH, default=/sign-in"`
}

// RateLimitConfig bounds sign-in attempts per client IP. A zero rate turns
// the limit off.
type RateLimitConfig struct {
	SignInRate  float64 `env:"SIGN_IN_RATE,  default=0.2"`
	SignInBurst int     `env:"SIGN_IN_BURST, default=10"`
}

type AppwriteConfig struct {
	Endpoint  string        `env:"APPWRITE_ENDPOINT, default=https://cloud.appwrite.io/v1"`
	ProjectID string        `env:"APPWRITE_PROJECT_ID"`
	APIKey    string        `env:"APPWRITE_API_KEY"`
	Timeout   time.Duration `env:"APPWRITE_TIMEOUT, default=10s"`
}

type LocalAuthConfig struct {
	SessionTTL time.Duration `env:"LOCAL_SESSION_TTL, default=24h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=signin_portal"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	cfg.StateStore = strings.ToLower(cfg.StateStore)
	cfg.AuthBackend = strings.ToLower(cfg.AuthBackend)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// NeedsRedis reports whether any configured component talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.StateStore == StateStoreRedis || c.AuthBackend == AuthBackendLocal
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.StateStore {
	case StateStoreRedis, StateStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STATE_STORE must be %q or %q, got %q", StateStoreRedis, StateStoreMemory, c.StateStore))
	}

	switch c.AuthBackend {
	case AuthBackendAppwrite:
		if c.Appwrite.ProjectID == "" {
			errs = append(errs, errors.New("APPWRITE_PROJECT_ID is required for the appwrite backend"))
		}
		if c.Appwrite.APIKey == "" {
			errs = append(errs, errors.New("APPWRITE_API_KEY is required for the appwrite backend"))
		}
	case AuthBackendLocal:
	default:
		errs = append(errs, fmt.Errorf("AUTH_BACKEND must be %q or %q, got %q", AuthBackendAppwrite, AuthBackendLocal, c.AuthBackend))
	}

	if c.RateLimit.SignInRate < 0 || c.RateLimit.SignInBurst < 0 {
		errs = append(errs, errors.New("SIGN_IN_RATE and SIGN_IN_BURST must not be negative"))
	}
	if c.RateLimit.SignInRate > 0 && c.RateLimit.SignInBurst == 0 {
		errs = append(errs, errors.New("SIGN_IN_BURST must be positive when SIGN_IN_RATE is set"))
	}

	if c.IsProduction() && len(c.Session.Secret) < minSecretLength {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes in production", minSecretLength))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if !strings.HasPrefix(c.Session.ProfilePath, "/") || !strings.HasPrefix(c.Session.SignInPath, "/") {
		errs = append(errs, errors.New("PROFILE_PATH and SIGN_IN_PATH must be absolute paths"))
	}

	return errors.Join(errs...)
}
