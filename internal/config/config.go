package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	// Google AI
	GoogleAPIKey string
	LLMModel     string
	LLMTimeout   time.Duration

	// Client authentication. APIKeys empty means any non-empty key is
	// accepted (MVP mode).
	APIKeys      []string
	APIKeyHeader string
	JWTSecret    string

	// Rate limiting
	RateLimitPerMinute int
	RateLimitBackend   string

	// Optional integrations; empty disables the feature.
	DatabaseURL string
	RedisURL    string

	AllowedOrigins []string
	Debug          bool
}

func Load() (*Config, error) {
	godotenv.Load()

	limit, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 100)
	if err != nil {
		return nil, err
	}
	timeout, err := getEnvInt("LLM_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		GoogleAPIKey:       getEnv("GOOGLE_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", "gemini-1.5-flash"),
		LLMTimeout:         time.Duration(timeout) * time.Second,
		APIKeys:            splitList(getEnv("API_KEYS", "")),
		APIKeyHeader:       getEnv("API_KEY_HEADER", "X-API-Key"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		RateLimitPerMinute: limit,
		RateLimitBackend:   getEnv("RATE_LIMIT_BACKEND", "memory"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "*")),
		Debug:              strings.EqualFold(getEnv("DEBUG", "false"), "true"),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer: %w", key, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
