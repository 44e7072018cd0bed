package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"github.com/shopspring/decimal"
)

// Storage backends selectable with STORAGE_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Storage  StorageConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	API      APIConfig
	Policy   PolicyConfig
	Profiles ProfilesConfig
	Checkout CheckoutConfig
	Stream   StreamConfig
}

type StorageConfig struct {
	Backend    string `env:"STORAGE_BACKEND, default=sqlite"`
	SQLitePath string `env:"SQLITE_PATH,     default=var/storefront.db"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=storefront"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	TTL      time.Duration `env:"REDIS_TTL,      default=0s"`
}

// APIConfig points at the remote product/order/auth API.
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:3001/api"`
	Timeout time.Duration `env:"API_TIMEOUT,  default=10s"`
}

type PolicyConfig struct {
	ClearCartOnLogout bool `env:"POLICY_CLEAR_CART_ON_LOGOUT, default=false"`
}

// ProfilesConfig bounds the browser profiles held in memory.
type ProfilesConfig struct {
	MaxOpen       int           `env:"PROFILES_MAX_OPEN,       default=10000"`
	IdleTimeout   time.Duration `env:"PROFILES_IDLE_TIMEOUT,   default=30m"`
	SweepInterval time.Duration `env:"PROFILES_SWEEP_INTERVAL, default=1m"`
}

type CheckoutConfig struct {
	FreeShippingOver decimal.Decimal `env:"CHECKOUT_FREE_SHIPPING_OVER, default=100"`
	ShippingFee      decimal.Decimal `env:"CHECKOUT_SHIPPING_FEE,       default=15"`
}

type StreamConfig struct {
	Workers int `env:"STREAM_WORKERS, default=4"`
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
// A .env file in the working directory, if present, is loaded first without
// overriding variables that are already set.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Sprintf("config: failed to read .env: %v", err))
	}
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith resolves configuration through lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Profiles.MaxOpen < 1 {
		return fmt.Errorf("PROFILES_MAX_OPEN must be at least 1")
	}
	if c.Profiles.IdleTimeout <= 0 || c.Profiles.SweepInterval <= 0 {
		return fmt.Errorf("PROFILES_IDLE_TIMEOUT and PROFILES_SWEEP_INTERVAL must be positive")
	}
	if c.Stream.Workers < 0 {
		return fmt.Errorf("STREAM_WORKERS must not be negative")
	}
	return nil
}
