package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Env is the process configuration. Values come from config.yaml when it
// exists and are overridden by environment variables.
type Env struct {
	AppAddr  string `yaml:"app_addr" env:"APP_ADDR" env-default:":8080"`
	GinMode  string `yaml:"gin_mode" env:"GIN_MODE"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	APIBaseURL string        `yaml:"api_base_url" env:"API_BASE_URL" env-default:"http://localhost:5000/api"`
	APITimeout time.Duration `yaml:"api_timeout" env:"API_TIMEOUT" env-default:"15s"`

	StoreDriver string        `yaml:"store_driver" env:"STORE_DRIVER" env-default:"memory"`
	MySQLDSN    string        `yaml:"mysql_dsn" env:"MYSQL_DSN" env-default:"root:@tcp(127.0.0.1:3306)/travel_app?parseTime=true&loc=Local&charset=utf8mb4"`
	RedisAddr   string        `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisDB     int           `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
	SessionTTL  time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"24h"`

	PaymentSuccessURL string `yaml:"payment_success_url" env:"PAYMENT_SUCCESS_URL" env-default:"http://localhost:5173/payment-success"`
	PaymentCancelURL  string `yaml:"payment_cancel_url" env:"PAYMENT_CANCEL_URL" env-default:"http://localhost:5173/payment-cancel"`

	MaterializeConcurrency int `yaml:"materialize_concurrency" env:"MATERIALIZE_CONCURRENCY" env-default:"1"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`

	// JWTSecret is the HS256 key shared with the ticketing API. Required.
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

const (
	StoreMemory = "memory"
	StoreMySQL  = "mysql"
	StoreRedis  = "redis"
)

// LoadEnv reads config.yaml if present, then the environment.
func LoadEnv() (Env, error) {
	return LoadEnvFrom("config.yaml")
}

func LoadEnvFrom(path string) (Env, error) {
	var env Env
	if err := cleanenv.ReadConfig(path, &env); err != nil {
		// fallback to env vars if file not found
		if err := cleanenv.ReadEnv(&env); err != nil {
			return Env{}, fmt.Errorf("config error: %w", err)
		}
	}
	env.StoreDriver = strings.ToLower(strings.TrimSpace(env.StoreDriver))
	switch env.StoreDriver {
	case "":
		env.StoreDriver = StoreMemory
	case StoreMemory, StoreMySQL, StoreRedis:
	default:
		return Env{}, fmt.Errorf("config error: unknown STORE_DRIVER %q", env.StoreDriver)
	}
	env.JWTSecret = strings.TrimSpace(env.JWTSecret)
	if env.JWTSecret == "" {
		return Env{}, fmt.Errorf("config error: JWT_SECRET is required")
	}
	return env, nil
}
