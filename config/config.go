package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	API    APIConfig
	Redis  RedisConfig
	Kafka  KafkaConfig
	Audit  AuditConfig
	Observ ObservabilityConfig
	Sync   SyncConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

// APIConfig points at the remote admin API the store mirrors
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
	// Token seeds the session; with Redis it is written only when no token is stored
	Token   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TokenKey string
}

type KafkaConfig struct {
	Brokers          []string
	TopicStoreEvents string
	ConsumerGroup    string
}

type AuditConfig struct {
	DatabaseURL string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
}

type SyncConfig struct {
	ConnectivityInterval time.Duration
	SyncOnStart          bool
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	apiTimeout, _ := strconv.Atoi(getEnv("API_TIMEOUT_SECONDS", "10"))
	interval, _ := strconv.Atoi(getEnv("CONNECTIVITY_INTERVAL_SECONDS", "30"))
	syncOnStart, _ := strconv.ParseBool(getEnv("SYNC_ON_START", "true"))

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		API: APIConfig{
			BaseURL: getEnv("API_BASE_URL", "http://localhost:8000/api/v1/admin"),
			Timeout: time.Duration(apiTimeout) * time.Second,
			Token:   getEnv("ADMIN_TOKEN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			TokenKey: getEnv("TOKEN_KEY", "admin_token"),
		},
		Kafka: KafkaConfig{
			Brokers:          splitList(getEnv("KAFKA_BROKERS", "")),
			TopicStoreEvents: getEnv("KAFKA_TOPIC_STORE_EVENTS", "store-events"),
			ConsumerGroup:    getEnv("KAFKA_CONSUMER_GROUP", "admin-store-group"),
		},
		Audit: AuditConfig{
			DatabaseURL: getEnv("AUDIT_DATABASE_URL", ""),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		},
		Sync: SyncConfig{
			ConnectivityInterval: time.Duration(interval) * time.Second,
			SyncOnStart:          syncOnStart,
		},
	}

	log.Printf("Config loaded: env=%s, port=%s, api=%s", cfg.Server.Env, cfg.Server.Port, cfg.API.BaseURL)
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// splitList splits a comma separated value, dropping empty entries
func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
