package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tasks_api/internal/logger"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type Config struct {
	AppPort    string
	AppVersion string

	StoreBackend string
	DatabaseURL  string
	SQLitePath   string
	AutoMigrate  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// per owner
	RateLimit       int
	RateLimitWindow time.Duration

	// empty means the request Origin is reflected
	AllowedOrigin string

	LogLevel string
	LogJSON  bool
}

// Load reads .env (if present) and the environment. Invalid settings are fatal.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Parse(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// Parse builds a Config from getenv. Malformed numbers fall back to defaults.
func Parse(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		AppPort:         stringOr(getenv("APP_PORT"), "8080"),
		AppVersion:      stringOr(getenv("APP_VERSION"), "dev"),
		StoreBackend:    strings.ToLower(stringOr(getenv("STORE_BACKEND"), BackendPostgres)),
		DatabaseURL:     getenv("DATABASE_URL"),
		SQLitePath:      stringOr(getenv("SQLITE_PATH"), "tasks.db"),
		AutoMigrate:     getenv("AUTO_MIGRATE") != "false",
		RedisAddr:       getenv("REDIS_ADDR"),
		RedisPassword:   getenv("REDIS_PASSWORD"),
		RedisDB:         intOr(getenv("REDIS_DB"), 0, 0),
		RateLimit:       intOr(getenv("API_RATE_LIMIT"), 120, 1),
		RateLimitWindow: time.Duration(intOr(getenv("API_RATE_WINDOW_SECONDS"), 60, 1)) * time.Second,
		AllowedOrigin:   getenv("ALLOWED_ORIGIN"),
		LogLevel:        stringOr(getenv("LOG_LEVEL"), "info"),
		LogJSON:         getenv("LOG_JSON") == "true",
	}

	switch cfg.StoreBackend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is not set")
		}
	case BackendSQLite, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

func stringOr(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

// intOr parses v, returning def when v is empty, malformed or below floor.
func intOr(v string, def, floor int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < floor {
		return def
	}
	return n
}
