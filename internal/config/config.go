package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"OrderTransfer"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"ordertransfer"`
	}

	Store struct {
		// Driver selects the persistence backend: "postgres" or "memory".
		Driver string `envconfig:"STORE_DRIVER" default:"postgres"`
	}

	Server struct {
		Timeout         time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	}

	Auth struct {
		JWTSecret string `envconfig:"JWT_SECRET"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://127.0.0.1:5173"`
	}

	Transfer struct {
		Enabled         bool          `envconfig:"TRANSFER_ENABLED" default:"true"`
		Title           string        `envconfig:"TRANSFER_TITLE" default:"Order transfer"`
		Description     string        `envconfig:"TRANSFER_DESCRIPTION" default:"Please transfer order to this user"`
		Instructions    string        `envconfig:"TRANSFER_INSTRUCTIONS" default:""`
		ExpiryThreshold time.Duration `envconfig:"TRANSFER_EXPIRY_THRESHOLD" default:"24h"`
		SweepInterval   time.Duration `envconfig:"TRANSFER_SWEEP_INTERVAL" default:"1h"`
	}

	Kafka struct {
		// Brokers left empty routes notifications to the log instead of Kafka.
		Brokers []string `envconfig:"KAFKA_BROKERS"`
		Topic   string   `envconfig:"KAFKA_TOPIC" default:"order-transfer-events"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	switch cfg.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Transfer.ExpiryThreshold <= 0 {
		return nil, fmt.Errorf("transfer expiry threshold must be positive, got %s", cfg.Transfer.ExpiryThreshold)
	}

	if cfg.Transfer.SweepInterval <= 0 {
		return nil, fmt.Errorf("transfer sweep interval must be positive, got %s", cfg.Transfer.SweepInterval)
	}

	return &cfg, nil
}
