package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type key string

const (
	KeyLogger  = key("logger")
	KeyUUID    = key("uuid")
	KeyMetrics = key("metrics")
)

type Config struct {
	Service    Service
	Postgres   Postgres
	Redis      Redis
	Centrifuge Centrifuge
	Kafka      Kafka
	Logger     Logger
	Metrics    Metrics
	Platform   Platform
}

type Service struct {
	Port string `env:"SERVICE_PORT" env-default:"8080"`
	Name string `env:"SERVICE_NAME" env-default:"negotiation-service"`
}

type Postgres struct {
	User     string `env:"NEGOTIATION_SERVICE_POSTGRES_USER" env-required:"true"`
	Password string `env:"NEGOTIATION_SERVICE_POSTGRES_PASSWORD" env-required:"true"`
	Database string `env:"NEGOTIATION_SERVICE_POSTGRES_DB" env-required:"true"`
	Host     string `env:"NEGOTIATION_SERVICE_POSTGRES_HOST" env-default:"localhost"`
	Port     string `env:"NEGOTIATION_SERVICE_POSTGRES_PORT" env-default:"5432"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST" env-default:"localhost"`
	Port     string `env:"REDIS_PORT" env-default:"6379"`
	Password string `env:"REDIS_PASSWORD"`
}

type Centrifuge struct {
	BaseURL   string        `env:"CENTRIFUGO_BASE_URL"`
	APIKey    string        `env:"CENTRIFUGO_API_KEY"`
	JWTSecret string        `env:"CENTRIFUGO_JWT_SECRET" env-required:"true"`
	Timeout   time.Duration `env:"CENTRIFUGO_TIMEOUT" env-default:"5s"`
}

type Kafka struct {
	Host          string `env:"KAFKA_HOST" env-default:"localhost"`
	Port          string `env:"KAFKA_PORT" env-default:"9092"`
	CheckoutTopic string `env:"NEGOTIATION_CHECKOUT_TOPIC" env-default:"negotiation.checkout"`
}

type Logger struct {
	Host string `env:"LOGGER_SERVICE_HOST"`
	Port string `env:"LOGGER_SERVICE_PORT"`
}

type Metrics struct {
	Host string `env:"GRAFANA_HOST"`
	Port int    `env:"GRAFANA_PORT"`
}

type Platform struct {
	Env string `env:"ENV" env-default:"dev"`
}

func MustLoad() *Config {
	cfg := &Config{}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		log.Fatalf("failed to read env variables: %s", err)
	}

	return cfg
}

// CentrifugoEnabled reports whether events should also be published to Centrifugo.
func (c *Config) CentrifugoEnabled() bool {
	return c.Centrifuge.BaseURL != ""
}

// Client configures the negotiator CLI. Flags override these values.
type Client struct {
	APIURL   string `env:"NEGOTIATION_API_URL" env-default:"http://localhost:8080"`
	WSURL    string `env:"NEGOTIATION_WS_URL" env-default:"ws://localhost:8080/ws"`
	Token    string `env:"NEGOTIATION_TOKEN"`
	UserID   string `env:"NEGOTIATION_USER_ID"`
	Logger   Logger
	Platform Platform
}

func MustLoadClient() *Client {
	cfg := &Client{}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		log.Fatalf("failed to read env variables: %s", err)
	}

	return cfg
}
