package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string

	// Moodle connection settings. User/Pass/QuizID are optional defaults
	// used to pre-fill the dashboard form; the form value always wins.
	MoodleBaseURL string
	MoodleUser    string
	MoodlePass    string
	MoodleQuizID  string

	// DatabaseURL and RedisURL are optional. When empty the service runs
	// with in-memory snapshot history and cache.
	DatabaseURL string
	MaxDBConns  int32
	RedisURL    string

	JWTSecret  string
	SessionTTL time.Duration

	FetchTimeout time.Duration
	FetchRetries int

	// SyncRatePerMinute limits sync and login attempts per client IP.
	SyncRatePerMinute int

	// AutoSyncDefault is the default auto-sync interval for new sessions.
	AutoSyncDefault time.Duration

	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		GinMode:           getEnv("GIN_MODE", "debug"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "pretty"),
		MoodleBaseURL:     getEnv("MOODLE_BASE_URL", "https://ava.ufscar.br"),
		MoodleUser:        getEnv("MOODLE_USER", ""),
		MoodlePass:        getEnv("MOODLE_PASS", ""),
		MoodleQuizID:      getEnv("MOODLE_QUIZ_ID", ""),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		MaxDBConns:        int32(getEnvInt("MAX_DB_CONNS", 8)),
		RedisURL:          getEnv("REDIS_URL", ""),
		JWTSecret:         getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		SessionTTL:        time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
		FetchTimeout:      time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 60)) * time.Second,
		FetchRetries:      getEnvInt("FETCH_RETRIES", 2),
		SyncRatePerMinute: getEnvInt("SYNC_RATE_PER_MINUTE", 30),
		AutoSyncDefault:   time.Duration(clampInt(getEnvInt("AUTO_SYNC_DEFAULT_MINUTES", 5), 2, 10)) * time.Minute,
		AllowedOrigins:    parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func clampInt(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
