package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type key string

const (
	KeyUUID    = key("uuid")
	KeyLogger  = key("logger")
	KeyMetrics = key("metrics")
)

type Config struct {
	Service    Service
	Postgres   Postgres
	Logger     Logger
	Metrics    Metrics
	Kafka      Kafka
	Centrifuge Centrifuge
	Platform   Platform
	Chat       Chat
}

type Service struct {
	Port string `env:"CHAT_SERVICE_PORT" env-default:"8080"`
	Name string `env:"CHAT_SERVICE_NAME" env-default:"chat-service"`
}

type Postgres struct {
	User     string `env:"CHAT_SERVICE_POSTGRES_USER" env-required:"true"`
	Password string `env:"CHAT_SERVICE_POSTGRES_PASSWORD" env-required:"true"`
	Database string `env:"CHAT_SERVICE_POSTGRES_DB" env-required:"true"`
	Host     string `env:"CHAT_SERVICE_POSTGRES_HOST" env-default:"localhost"`
	Port     string `env:"CHAT_SERVICE_POSTGRES_PORT" env-default:"5432"`
}

type Logger struct {
	Host string `env:"LOGGER_SERVICE_HOST" env-default:"localhost"`
	Port string `env:"LOGGER_SERVICE_PORT" env-default:"9999"`
}

type Metrics struct {
	Host string `env:"GRAFANA_HOST" env-default:"localhost"`
	Port int    `env:"GRAFANA_PORT" env-default:"8125"`
}

type Kafka struct {
	Host      string `env:"KAFKA_HOST" env-default:"localhost"`
	Port      string `env:"KAFKA_PORT" env-default:"9092"`
	UserTopic string `env:"KAFKA_USER_TOPIC" env-default:"user_events"`
}

type Centrifuge struct {
	BaseURL   string        `env:"CENTRIFUGE_BASE_URL" env-default:"http://localhost:8000"`
	APIKey    string        `env:"CENTRIFUGE_API_KEY"`
	JWTSecret string        `env:"CENTRIFUGE_JWT_SECRET" env-default:"dev-secret"`
	Timeout   time.Duration `env:"CENTRIFUGE_TIMEOUT" env-default:"5s"`
}

type Platform struct {
	Env string `env:"ENV" env-default:"dev"`
}

// Chat holds the engine knobs: operation deadlines, the read-mark settle
// delay after an inbound message and the directory poll interval.
type Chat struct {
	OpTimeout     time.Duration `env:"CHAT_OP_TIMEOUT" env-default:"5s"`
	ReadMarkDelay time.Duration `env:"CHAT_READ_MARK_DELAY" env-default:"100ms"`
	PollInterval  time.Duration `env:"CHAT_DIRECTORY_POLL_INTERVAL" env-default:"10s"`
}

func MustLoad() *Config {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}
	return cfg
}
