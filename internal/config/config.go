package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// StoreDriver selects the order store backend: file, postgres or memory.
	StoreDriver string `envconfig:"STORE_DRIVER" default:"file"`
	OrdersFile  string `envconfig:"ORDERS_FILE" default:"data/orders.json"`
	PostgresURL string `envconfig:"POSTGRES_URL" default:""`

	// AMQPURL enables the lifecycle event publisher when set.
	AMQPURL string `envconfig:"AMQP_URL" default:""`

	// RedisAddr enables duplicate-submission protection on order creation
	// when set.
	RedisAddr      string        `envconfig:"REDIS_ADDR" default:""`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("envconfig.Process: %w", err)
	}

	switch cfg.StoreDriver {
	case "file", "memory":
	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("POSTGRES_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return &cfg, nil
}
