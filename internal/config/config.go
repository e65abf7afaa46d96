package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Prefix is prepended to every variable name, e.g. STOREFRONT_PORT.
const Prefix = "STOREFRONT"

type StoreKind string

const (
	StoreMemory   StoreKind = "memory"
	StoreRedis    StoreKind = "redis"
	StorePostgres StoreKind = "postgres"
)

type Config struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	APIURL          string        `envconfig:"API_URL" default:"http://localhost:5000"`
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`

	ShippingFee         decimal.Decimal `envconfig:"SHIPPING_FEE" default:"19.99"`
	CheckoutFreshness   time.Duration   `envconfig:"CHECKOUT_FRESHNESS" default:"5m"`
	AdminSearchDebounce time.Duration   `envconfig:"ADMIN_SEARCH_DEBOUNCE" default:"400ms"`

	// ClientID namespaces the persisted client state.
	ClientID      string    `envconfig:"CLIENT_ID" default:"default"`
	Store         StoreKind `envconfig:"STORE" default:"memory"`
	RedisURL      string    `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	DatabaseDSN   string    `envconfig:"DATABASE_DSN"`
	RunMigrations bool      `envconfig:"RUN_MIGRATIONS" default:"true"`

	// RabbitMQURL left empty disables reconciliation events.
	RabbitMQURL string `envconfig:"RABBITMQ_URL"`

	CORSAllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads an optional .env file from the working directory and then the
// environment. Variables already set win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "load .env")
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "process env")
	}
	cfg.CORSAllowOrigins = trimAll(cfg.CORSAllowOrigins)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if c.DatabaseDSN == "" {
			return errors.New("STOREFRONT_DATABASE_DSN is required for the postgres store")
		}
	default:
		return errors.Errorf("unknown store %q", c.Store)
	}
	if c.ShippingFee.IsNegative() {
		return errors.New("shipping fee must not be negative")
	}
	if c.CheckoutFreshness <= 0 {
		return errors.New("checkout freshness must be positive")
	}
	return nil
}

func trimAll(vs []string) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
