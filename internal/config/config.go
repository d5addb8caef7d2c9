// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// Database
	DatabaseURL string

	// CORS
	CORSOrigins []string

	// LLM provider settings
	LLMProvider    string  // openai, anthropic, openrouter, ollama
	LLMAPIKey      string
	LLMBaseURL     string // override for self-hosted/proxy endpoints
	LLMModel       string
	LLMTemperature float64
	LLMMaxTokens   int
	LLMTimeout     time.Duration

	// Fetcher
	FetchTimeout    time.Duration // per-request timeout
	FetchRetries    int           // attempts for transient network errors
	FetchRetryDelay time.Duration // base backoff, grows linearly per attempt
	FetchRedirects  int           // max redirects to follow
	FetchUserAgent  string

	// Worker
	WorkerPollInterval time.Duration // how often to poll for queued jobs
	WorkerConcurrency  int           // number of concurrent workers
	StaleJobMaxAge     time.Duration // processing jobs older than this are failed on startup

	// IdleTimeout shuts the server down after this long with no requests and
	// no jobs in flight, for scale-to-zero deployments. Zero disables it.
	IdleTimeout time.Duration
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:valuelens.db?_journal=WAL&_timeout=5000"),
		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		LLMProvider:    getEnv("LLM_PROVIDER", "openai"),
		LLMAPIKey:      getEnv("LLM_API_KEY", ""),
		LLMBaseURL:     getEnv("LLM_BASE_URL", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.2),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 4096),
		LLMTimeout:     getEnvDuration("LLM_TIMEOUT", 120*time.Second),

		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchRetries:    getEnvInt("FETCH_RETRIES", 3),
		FetchRetryDelay: getEnvDuration("FETCH_RETRY_DELAY", 1*time.Second),
		FetchRedirects:  getEnvInt("FETCH_REDIRECTS", 10),
		FetchUserAgent:  getEnv("FETCH_USER_AGENT", ""),

		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 5*time.Second),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 3),
		StaleJobMaxAge:     getEnvDuration("STALE_JOB_MAX_AGE", 1*time.Hour),

		IdleTimeout: getEnvDuration("IDLE_TIMEOUT", 0),
	}

	// Ollama runs locally without a key; every other provider needs one
	if cfg.LLMAPIKey == "" && cfg.LLMProvider != "ollama" {
		return nil, fmt.Errorf("LLM_API_KEY is required for provider %s", cfg.LLMProvider)
	}

	if cfg.WorkerConcurrency < 1 {
		return nil, fmt.Errorf("WORKER_CONCURRENCY must be at least 1")
	}
	if cfg.FetchRetries < 1 {
		return nil, fmt.Errorf("FETCH_RETRIES must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
