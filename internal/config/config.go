package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	ModeTest = "test"

	testDatabaseName    = "messagely_test"
	defaultDatabaseName = "messagely"
)

// Config is resolved once at startup and passed down explicitly.
type Config struct {
	Mode string `envconfig:"APP_ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8080"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	JWTSecret  string        `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
	TokenTTL   time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	BcryptCost int           `envconfig:"BCRYPT_COST" default:"12"`

	CORSOrigins    []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	RedisURL     string   `envconfig:"REDIS_URL"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"messagely.messages"`

	SendLimit  int64         `envconfig:"SEND_LIMIT" default:"30"`
	SendWindow time.Duration `envconfig:"SEND_WINDOW" default:"1m"`
	LoginRate  float64       `envconfig:"LOGIN_RATE" default:"1"`
	LoginBurst int           `envconfig:"LOGIN_BURST" default:"5"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must not be empty")
	}
	return cfg, nil
}

func (c Config) IsTest() bool {
	return strings.EqualFold(c.Mode, ModeTest)
}

// DatabaseName is the only connection parameter that depends on the mode.
func (c Config) DatabaseName() string {
	if c.IsTest() {
		return testDatabaseName
	}
	return defaultDatabaseName
}

func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + strconv.Itoa(c.DBPort),
		Path:     "/" + c.DatabaseName(),
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
