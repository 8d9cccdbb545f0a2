package config

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"packhouse-temporal/internal/teamdesk"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	TeamDesk teamdesk.Config
	CacheTTL time.Duration
	Addr     string
	DataDir  string
	LogDir   string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Binary directory first
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Then the working directory. godotenv never overrides variables
	// that are already set.
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	logDir := getEnv("LOGS_FOLDER", "")
	if logDir == "" {
		if exeDir != "" {
			logDir = filepath.Join(exeDir, "logs")
		} else {
			logDir = "logs"
		}
	}

	return FromEnv(logDir), nil
}

// FromEnv builds the configuration from the process environment alone.
func FromEnv(logDir string) *AppConfig {
	ttlMs := getEnvIntInRange("PACKHOUSE_CACHE_TTL_MS", 300000, 1, 1<<31-1)

	return &AppConfig{
		TeamDesk: teamdesk.Config{
			Domain:      getEnv("TEAMDESK_DOMAIN", "appnostic.dbflex.net"),
			AppID:       getEnv("TEAMDESK_APP_ID", "75820"),
			Table:       getEnv("TEAMDESK_TABLE", "Palletizing"),
			View:        getEnv("TEAMDESK_VIEW", "BI_Palletizing"),
			Filter:      getEnv("TEAMDESK_FILTER", ""),
			BaseURL:     getEnv("TEAMDESK_BASE_URL", ""),
			Token:       getEnv("TEAMDESK_TOKEN", ""),
			User:        getEnv("TEAMDESK_USER", ""),
			Password:    getEnv("TEAMDESK_PASSWORD", ""),
			PageSize:    getEnvIntInRange("TEAMDESK_PAGE_SIZE", teamdesk.DefaultPageSize, 100, 1000),
			Concurrency: getEnvIntInRange("TEAMDESK_CONCURRENCY", teamdesk.DefaultConcurrency, 1, 8),
			MaxRetries:  getEnvIntInRange("TEAMDESK_MAX_RETRIES", teamdesk.DefaultMaxRetries, 0, 8),
			Timeout:     time.Duration(getEnvIntInRange("TEAMDESK_TIMEOUT_SECONDS", 90, 1, 3600)) * time.Second,
		},
		CacheTTL: time.Duration(ttlMs) * time.Millisecond,
		Addr:     getEnv("PACKHOUSE_ADDR", ":8080"),
		DataDir:  getEnv("PACKHOUSE_DATA_DIR", "data"),
		LogDir:   logDir,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvIntInRange floors numeric values ("500.0" is 500) and returns
// fallback for unset, non-numeric or out-of-range values.
func getEnvIntInRange(key string, fallback, lo, hi int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) {
		log.Warn().Str("key", key).Str("value", value).Int("default", fallback).Msg("Ignoring non-numeric setting")
		return fallback
	}
	f = math.Floor(f)
	if f < float64(lo) || f > float64(hi) {
		log.Warn().Str("key", key).Str("value", value).Int("default", fallback).Msg("Ignoring out-of-range setting")
		return fallback
	}
	return int(f)
}
