package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	AllowedOrigin string

	BoardSize      int
	ReconnectGrace time.Duration
	TokenSecret    string
	TokenTTL       time.Duration

	CleanupInterval time.Duration
	SessionMaxAge   time.Duration

	// пустая строка - архив матчей выключен
	DatabaseURL string

	// пустой адрес - лимитер в памяти процесса
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RateLimitPerMinute int

	// пустая строка - шина событий выключена
	NatsURL string

	LogLevel string
	LogJSON  bool
}

// Load читает .env (если есть) и переменные окружения
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort:       getEnv("APP_PORT", "8080"),
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),

		BoardSize:      getInt("BOARD_SIZE", 10),
		ReconnectGrace: getDuration("RECONNECT_GRACE", 0),
		TokenSecret:    os.Getenv("TOKEN_SECRET"),
		TokenTTL:       getDuration("TOKEN_TTL", 2*time.Hour),

		CleanupInterval: getDuration("CLEANUP_INTERVAL", 10*time.Minute),
		SessionMaxAge:   getDuration("SESSION_MAX_AGE", time.Hour),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getInt("REDIS_DB", 0),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 120),

		NatsURL: os.Getenv("NATS_URL"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  os.Getenv("LOG_FORMAT") == "json",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// принимает "30s", "5m" или число секунд
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
