package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                     string
	Env                      string
	FirebaseCredentialsPath  string
	PostgresUrl              string
	MongoURI                 string
	MongoDatabase            string
	RedisURL                 string
	JWTSecret                string
	LogLevel                 string
	LogFormat                string
	MetricsPort              string
	RateLimit                string
	WorkerConcurrency        int
	DashboardCacheTTL        time.Duration
	DashboardCacheMaxEntries int
}

// Load reads configuration from the environment, after merging a local .env file if present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, assuming environment variables are set.")
	}

	env := getEnv("ENV", "development")
	cfg := &Config{
		Port:                     getEnv("PORT", "8080"),
		Env:                      env,
		FirebaseCredentialsPath:  getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		PostgresUrl:              getEnv("POSTGRES_URL", "postgres://localhost:5432/streamify?sslmode=disable"),
		MongoURI:                 getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:            getEnv("MONGO_DATABASE", "streamify"),
		RedisURL:                 getEnv("REDIS_URL", ""),
		JWTSecret:                getEnv("JWT_SECRET", "supersecretjwtkey"),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		LogFormat:                getEnv("LOG_FORMAT", defaultLogFormat(env)),
		MetricsPort:              getEnv("METRICS_PORT", "9090"),
		RateLimit:                getEnv("RATE_LIMIT", "100-M"),
		WorkerConcurrency:        getEnvInt("WORKER_CONCURRENCY", 10),
		DashboardCacheTTL:        getEnvDuration("DASHBOARD_CACHE_TTL", defaultDashboardTTL(env)),
		DashboardCacheMaxEntries: getEnvInt("DASHBOARD_CACHE_MAX_ENTRIES", 100),
	}
	return cfg
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// QueueEnabled reports whether a broker is configured for background jobs.
func (c *Config) QueueEnabled() bool {
	return c.RedisURL != ""
}

func defaultDashboardTTL(env string) time.Duration {
	if env == "production" {
		return 30 * time.Second
	}
	return 5 * time.Second
}

func defaultLogFormat(env string) string {
	if env == "production" {
		return "json"
	}
	return "text"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		slog.Warn("ignoring invalid integer setting", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("ignoring invalid duration setting", "key", key, "value", value)
		return defaultValue
	}
	return d
}
