package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is loaded once at startup. Backend selection is driven entirely by
// which connection settings are present: a Postgres DSN wins, then a Mongo
// URI, and with neither the store falls back to flat files under DataDir.
type Config struct {
	HTTPAddr string

	PostgresDSN string
	MongoURI    string
	MongoDBName string
	DataDir     string

	AdminPassword string
	TokenSecret   string
	TokenMaxAge   time.Duration

	PageSize int
	Timeout  time.Duration

	RabbitURI        string
	RabbitExchange   string
	RabbitRoutingKey string
}

const (
	HTTPAddr            = "HTTP_ADDR"
	DatabaseURL         = "DATABASE_URL"
	MongoURI            = "MONGO_URI"
	MongoDBName         = "MONGO_DB_NAME"
	DataDir             = "DATA_DIR"
	AdminPassword       = "ADMIN_PASSWORD"
	TokenSecret         = "TOKEN_SECRET"
	TokenMaxAge         = "TOKEN_MAX_AGE"
	PageSize            = "PAGE_SIZE"
	Timeout             = "TIMEOUT"
	RabbitURIEnv        = "RABBIT_URI"
	RabbitExchangeEnv   = "RABBIT_EXCHANGE"
	RabbitRoutingKeyEnv = "RABBIT_ROUTING_KEY"
)

func FromEnv() (Config, error) {
	_ = godotenv.Load()

	var cfg Config

	cfg.HTTPAddr = getEnv(HTTPAddr, ":8080")
	cfg.PostgresDSN = os.Getenv(DatabaseURL)
	cfg.MongoURI = os.Getenv(MongoURI)
	cfg.MongoDBName = getEnv(MongoDBName, "ahmetlimedya")
	cfg.DataDir = getEnv(DataDir, "data")

	cfg.AdminPassword = getEnv(AdminPassword, "admin123")
	cfg.TokenSecret = getEnv(TokenSecret, cfg.AdminPassword+"_ahmetli_secret")
	cfg.RabbitURI = os.Getenv(RabbitURIEnv)
	cfg.RabbitExchange = getEnv(RabbitExchangeEnv, "cms.sync")
	cfg.RabbitRoutingKey = getEnv(RabbitRoutingKeyEnv, "content.changed")

	var err error
	if cfg.PageSize, err = getEnvInt(PageSize, 20); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", PageSize, err)
	}
	if cfg.TokenMaxAge, err = getEnvDuration(TokenMaxAge, 24*time.Hour); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", TokenMaxAge, err)
	}
	if cfg.Timeout, err = getEnvDuration(Timeout, 10*time.Second); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", Timeout, err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return i, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
