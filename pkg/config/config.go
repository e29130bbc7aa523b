package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/muhammadchandra19/exchange/pkg/postgresql"
	"github.com/muhammadchandra19/exchange/pkg/redis"
)

// FeedSource selects where the ingestion activity reads orders from.
type FeedSource string

const (
	// FeedSourceFile reads a CSV file.
	FeedSourceFile FeedSource = "file"
	// FeedSourceKafka consumes a Kafka topic.
	FeedSourceKafka FeedSource = "kafka"
)

// MustLoad loads the configuration from environment variables and .env file.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load() // Load environment variables from .env file

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and an optional .env file.
func Load[T any](cfg T, envFiles ...string) error {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return env.Parse(cfg)
}

// Config holds the configuration for the order matcher.
type Config struct {
	FeedSource      FeedSource `env:"FEED_SOURCE" envDefault:"file"`
	FeedFile        string     `env:"FEED_FILE" envDefault:"orders.csv"`
	LedgerChunkSize int        `env:"LEDGER_CHUNK_SIZE" envDefault:"1024"`
	LogLevel        string     `env:"LOG_LEVEL" envDefault:"info"`

	Kafka          KafkaConfig          `envPrefix:"KAFKA_"`
	MatchPublisher MatchPublisherConfig `envPrefix:"MATCH_PUBLISHER_"`

	RedisEnabled bool         `env:"REDIS_ENABLED" envDefault:"false"`
	Redis        redis.Config `envPrefix:"REDIS_"`

	PostgresEnabled bool              `env:"POSTGRES_ENABLED" envDefault:"false"`
	Postgres        postgresql.Config `envPrefix:"POSTGRES_"`
}

// KafkaConfig holds the configuration for the Kafka order feed.
type KafkaConfig struct {
	Topic       string        `env:"TOPIC" envDefault:"orders"`
	GroupID     string        `env:"GROUP_ID" envDefault:"order-matcher"`
	Brokers     []string      `env:"BROKERS" envDefault:"localhost:9092"`
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" envDefault:"5s"`
}

// MatchPublisherConfig holds the configuration for match event publishing.
type MatchPublisherConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Topic   string   `env:"TOPIC" envDefault:"order-matches"`
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092"`
}
