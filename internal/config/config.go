package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings shared by the server, the worker and ledgerctl.
type Config struct {
	Port        string
	DatabaseURL string
	DBDriver    string
	TablePrefix string
	RedisURL    string

	LimitedKey   string
	FullKey      string
	SuperUserKey string

	CorsOrigins  []string
	RateLimitRPS float64

	DiscordWebhookURL string
	WorkerInterval    time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads .env (when present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using system environment")
	}

	return Config{
		Port:        GetEnv("PORT", "8080"),
		DatabaseURL: GetEnv("DATABASE_URL"),
		DBDriver:    strings.ToLower(GetEnv("DB_DRIVER", "postgres")),
		TablePrefix: GetEnv("DB_TABLE_PREFIX"),
		RedisURL:    GetEnv("REDIS_URL"),

		LimitedKey:   GetEnv("ROUTE_LIMITED_KEY"),
		FullKey:      GetEnv("ROUTE_KEY"),
		SuperUserKey: GetEnv("ROUTE_SUPERUSER_KEY"),

		CorsOrigins:  splitList(GetEnv("CORS_ORIGINS")),
		RateLimitRPS: getFloat("RATE_LIMIT_RPS", 20),

		DiscordWebhookURL: GetEnv("DISCORD_WEBHOOK_URL"),
		WorkerInterval:    getDuration("WORKER_INTERVAL", time.Minute),

		LogLevel:  strings.ToLower(GetEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(GetEnv("LOG_FORMAT", "json")),
	}
}

// GetEnv returns the value of key, or the first default when the key is unset.
func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func getFloat(key string, def float64) float64 {
	raw := GetEnv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("invalid float in environment, using default", "key", key, "value", raw)
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := GetEnv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", raw)
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
