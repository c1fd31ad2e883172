package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	eventpublisher "github.com/sora-xor/sora2-network-sub000/internal/usecase/event-publisher"
	"github.com/sora-xor/sora2-network-sub000/pkg/redis"
)

// Config represents the application configuration.
type Config struct {
	App       AppConfig             `envPrefix:"APP_"`
	Pebble    PebbleConfig          `envPrefix:"PEBBLE_"`
	Redis     redis.Config          `envPrefix:"REDIS_"`
	Kafka     eventpublisher.Config `envPrefix:"KAFKA_"`
	Limits    LimitsConfig          `envPrefix:"LIMITS_"`
	Scheduler SchedulerConfig       `envPrefix:"SCHEDULER_"`
}

// AppConfig represents the application configuration.
type AppConfig struct {
	Name        string `env:"NAME" envDefault:"orderbook-engine"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// PebbleConfig holds the embedded ledger settings.
type PebbleConfig struct {
	Path string `env:"PATH" envDefault:"./data/orderbook"`
}

// LimitsConfig holds the per-book capacity bounds.
type LimitsConfig struct {
	MaxOrdersPerUser  int `env:"MAX_ORDERS_PER_USER" envDefault:"1024"`
	MaxOrdersPerPrice int `env:"MAX_ORDERS_PER_PRICE" envDefault:"1024"`
	MaxPricesPerSide  int `env:"MAX_PRICES_PER_SIDE" envDefault:"1024"`
}

// SchedulerConfig holds the maintenance scheduler settings.
type SchedulerConfig struct {
	SweepInterval      time.Duration `env:"SWEEP_INTERVAL" envDefault:"1s"`
	MaxExpiredPerSweep int           `env:"MAX_EXPIRED_PER_SWEEP" envDefault:"100"`
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}
