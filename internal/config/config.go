package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string
	MongoURI    string
	RedisURL    string

	// Generation gateway configuration
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	// Per-user generation rate limit (requests per minute, with burst)
	GenerationRatePerMinute int
	GenerationBurst         int

	// Maintenance configuration
	GoalIdleDays int // goals untouched this long are marked abandoned
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		MongoURI:    getEnv("MONGODB_URI", "mongodb://localhost:27017/serena"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),

		LLMBaseURL: getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:  getEnv("LLM_API_KEY", ""),
		LLMModel:   getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout: time.Duration(getIntEnv("LLM_TIMEOUT_SECONDS", 30)) * time.Second,

		GenerationRatePerMinute: getIntEnv("GENERATION_RATE_PER_MINUTE", 20),
		GenerationBurst:         getIntEnv("GENERATION_BURST", 5),

		GoalIdleDays: getIntEnv("GOAL_IDLE_DAYS", 60),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
