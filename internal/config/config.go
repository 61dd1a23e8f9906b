// Package config handles application configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultArrivalBaseURL is the data.go.kr bus arrival information service.
const DefaultArrivalBaseURL = "http://apis.data.go.kr/1613000/ArvlInfoInqireService"

// Config holds all application configuration.
type Config struct {
	Port           string `validate:"required,numeric"`
	Env            string `validate:"oneof=development production test"`
	ArrivalAPIKey  string
	ArrivalBaseURL string `validate:"required,url"`
	ArrivalMode    string `validate:"oneof=route stop"`
	FavoritesPath  string
	LogLevel       string `validate:"oneof=debug info warn error"`
	HTTPTimeout    time.Duration `validate:"gte=0"`
	RequestTimeout time.Duration `validate:"gt=0"`
}

// Load reads configuration from environment variables with sensible defaults.
// Values from .env.local and .env are applied first without overriding
// variables already set in the process environment.
func Load() *Config {
	loadDotEnv(".env.local", ".env")

	return &Config{
		Port:           getEnv("PORT", "3000"),
		Env:            getEnv("ENV", "development"),
		ArrivalAPIKey:  getEnv("DATA_GO_KR_API_KEY", ""),
		ArrivalBaseURL: getEnv("ARRIVAL_API_BASE_URL", DefaultArrivalBaseURL),
		ArrivalMode:    strings.ToLower(getEnv("ARRIVAL_MODE", "route")),
		FavoritesPath:  getEnv("FAVORITES_PATH", "favorites.json"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		HTTPTimeout:    getDurationEnv("HTTP_TIMEOUT_SECONDS", 0) * time.Second,
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT_SECONDS", 15) * time.Second,
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks that configuration values are well formed. A missing API
// key is not an error here; the bus endpoint reports it per request.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadDotEnv(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			slog.Warn("failed to load env file", "file", f, "error", err)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultSeconds int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds)
		}
	}
	return time.Duration(defaultSeconds)
}
