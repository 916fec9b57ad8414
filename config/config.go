package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type Config struct {
	Port string `validate:"required,numeric"`

	DBDriver   string `validate:"oneof=sqlite postgres"`
	SQLitePath string `validate:"required_if=DBDriver sqlite"`
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisEnabled bool
	RedisHost    string
	RedisPort    string

	JWTSecret string `validate:"required,min=8"`

	LogFile  string
	LogLevel string `validate:"oneof=debug info warn error"`

	Timezone          string
	Location          *time.Location `validate:"required"`
	HeartbeatInterval time.Duration  `validate:"gt=0"`
	IdleThreshold     time.Duration  `validate:"gt=0"`
	CacheTTL          time.Duration  `validate:"gte=0"`

	LoginRateLimit  int           `validate:"gte=0"`
	LoginRateWindow time.Duration `validate:"gt=0"`

	AllowOrigins []string `validate:"min=1,dive,required"`
}

// Load reads the configuration from the environment, after applying an
// optional .env file from the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		DBDriver:     getEnv("DB_DRIVER", "sqlite"),
		SQLitePath:   getEnv("SQLITE_PATH", "./data/mantraverse.db"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "postgres"),
		DBPassword:   getEnv("DB_PASSWORD", ""),
		DBName:       getEnv("DB_NAME", "mantraverse"),
		DBSSLMode:    getEnv("DB_SSLMODE", "disable"),
		RedisHost:    getEnv("REDIS_HOST", "localhost"),
		RedisPort:    getEnv("REDIS_PORT", "6379"),
		JWTSecret:    getEnv("JWT_SECRET", "mantraverse-local-secret"),
		LogFile:      getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Timezone:     getEnv("TIMEZONE", "Local"),
		AllowOrigins: splitList(getEnv("ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}

	var err error
	if cfg.RedisEnabled, err = strconv.ParseBool(getEnv("REDIS_ENABLED", "false")); err != nil {
		return nil, fmt.Errorf("REDIS_ENABLED: %w", err)
	}
	if cfg.HeartbeatInterval, err = time.ParseDuration(getEnv("HEARTBEAT_INTERVAL", "10s")); err != nil {
		return nil, fmt.Errorf("HEARTBEAT_INTERVAL: %w", err)
	}
	if cfg.IdleThreshold, err = time.ParseDuration(getEnv("IDLE_THRESHOLD", "30s")); err != nil {
		return nil, fmt.Errorf("IDLE_THRESHOLD: %w", err)
	}
	if cfg.CacheTTL, err = time.ParseDuration(getEnv("CACHE_TTL", "5s")); err != nil {
		return nil, fmt.Errorf("CACHE_TTL: %w", err)
	}
	if cfg.LoginRateLimit, err = strconv.Atoi(getEnv("LOGIN_RATE_LIMIT", "10")); err != nil {
		return nil, fmt.Errorf("LOGIN_RATE_LIMIT: %w", err)
	}
	if cfg.LoginRateWindow, err = time.ParseDuration(getEnv("LOGIN_RATE_WINDOW", "1m")); err != nil {
		return nil, fmt.Errorf("LOGIN_RATE_WINDOW: %w", err)
	}
	if cfg.Location, err = time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// PostgresDSN builds the connection string used when DB_DRIVER=postgres.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
