package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("REDIS_ADDR", "")

	cfg := Load()
	assert.Equal(t, "http://localhost:8000/api/v1/admin", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "admin_token", cfg.Redis.TokenKey)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Sync.ConnectivityInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://shop.example.com/api/v1/admin")
	t.Setenv("API_TIMEOUT_SECONDS", "3")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SYNC_ON_START", "false")

	cfg := Load()
	assert.Equal(t, "https://shop.example.com/api/v1/admin", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Sync.SyncOnStart)
}
