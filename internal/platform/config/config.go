package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration for the storefront.
type Server struct {
	Addr          string
	JWTSigningKey string

	// Persistence selects the cart backend: memory, file, redis, postgres.
	Persistence string
	DataDir     string
	PostgresURL string

	Redis RedisConfig
	Kafka KafkaConfig
}

// RedisConfig carries connection tuning for the keyed-record backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the optional cart activity sink when Brokers is set.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("SAVORA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("SAVORA_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	persistence := os.Getenv("SAVORA_CART_BACKEND")
	if persistence == "" {
		persistence = "file"
	}

	dataDir := os.Getenv("SAVORA_DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	var brokers []string
	if raw := os.Getenv("SAVORA_KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("SAVORA_KAFKA_TOPIC")
	if topic == "" {
		topic = "savora.cart-activity"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		Persistence:   persistence,
		DataDir:       dataDir,
		PostgresURL:   os.Getenv("SAVORA_POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("SAVORA_REDIS_URL"),
			PoolSize:     intFromEnv("SAVORA_REDIS_POOL_SIZE", 10),
			MinIdleConns: intFromEnv("SAVORA_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{Brokers: brokers, Topic: topic},
	}
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
