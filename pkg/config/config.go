package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "prosper"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StateBackendFile  = "file"
	StateBackendRedis = "redis"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	State    StateConfig
	Redis    RedisConfig
	Checkout CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	if err := cfg.State.validate(); err != nil {
		return nil, err
	}
	if cfg.State.Backend == StateBackendRedis && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("redis state backend requires PROSPER_REDIS_URL or PROSPER_REDIS_ADDR")
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PROSPER_APP_ENV" default:"dev"`
	Port         string `envconfig:"PROSPER_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PROSPER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROSPER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the client at the remote storefront service.
type APIConfig struct {
	BaseURL string        `envconfig:"PROSPER_API_BASE_URL" default:"https://prosperv21.pythonanywhere.com"`
	Timeout time.Duration `envconfig:"PROSPER_API_TIMEOUT" default:"30s"`
}

func (a APIConfig) validate() error {
	parsed, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api base url must be http(s), got %q", a.BaseURL)
	}
	return nil
}

// StateConfig selects where token/user/theme keys persist between runs.
type StateConfig struct {
	Backend  string `envconfig:"PROSPER_STATE_BACKEND" default:"file"`
	FilePath string `envconfig:"PROSPER_STATE_FILE" default:"state.json"`
}

func (s StateConfig) validate() error {
	switch s.Backend {
	case StateBackendFile, StateBackendRedis:
		return nil
	default:
		return fmt.Errorf("state backend must be %q or %q, got %q", StateBackendFile, StateBackendRedis, s.Backend)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"PROSPER_REDIS_URL"`
	Address      string        `envconfig:"PROSPER_REDIS_ADDR"`
	Password     string        `envconfig:"PROSPER_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROSPER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROSPER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROSPER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROSPER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROSPER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROSPER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CheckoutConfig carries payment flow knobs that differ between environments.
type CheckoutConfig struct {
	PaymentMethod string `envconfig:"PROSPER_DEFAULT_PAYMENT_METHOD" default:"mpesa"`
}
