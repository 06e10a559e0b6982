package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ordertransfer/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, config.StoreDriverPostgres, cfg.Store.Driver)
	assert.True(t, cfg.Transfer.Enabled)
	assert.Equal(t, "Order transfer", cfg.Transfer.Title)
	assert.Equal(t, 24*time.Hour, cfg.Transfer.ExpiryThreshold)
	assert.Equal(t, time.Hour, cfg.Transfer.SweepInterval)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "postgres://postgres:@localhost:5432/ordertransfer?sslmode=disable", cfg.ConnectionString())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("TRANSFER_EXPIRY_THRESHOLD", "2h")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Transfer.ExpiryThreshold)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "UnknownDriver", key: "STORE_DRIVER", val: "sqlite"},
		{name: "ZeroThreshold", key: "TRANSFER_EXPIRY_THRESHOLD", val: "0s"},
		{name: "NegativeInterval", key: "TRANSFER_SWEEP_INTERVAL", val: "-1m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
