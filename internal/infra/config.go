package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv               string
	Port                 string
	DatabaseURL          string
	JWTSecret            string
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	VisionModel          string
	ImageModel           string
	ImageQuality         string
	StoragePath          string
	StorageBaseURL       string
	StorageSigningSecret string
	GeoIPDBPath          string
	WorkerPollInterval   time.Duration
	WorkerBatchLimit     int
	JobMaxAttempts       int
	HTTPReadTimeout      time.Duration
	HTTPWriteTimeout     time.Duration
	HTTPIdleTimeout      time.Duration
	RateLimitPerMin      int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		Port:                 getEnv("PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		VisionModel:          getEnv("VISION_MODEL", "gpt-4o"),
		ImageModel:           getEnv("IMAGE_MODEL", "dall-e-3"),
		ImageQuality:         getEnv("IMAGE_QUALITY", "standard"),
		StoragePath:          getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:       getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		StorageSigningSecret: os.Getenv("STORAGE_SIGNING_SECRET"),
		GeoIPDBPath:          os.Getenv("GEOIP_DB_PATH"),
		WorkerPollInterval:   time.Second * time.Duration(getEnvInt("WORKER_POLL_SECONDS", 10)),
		WorkerBatchLimit:     getEnvInt("WORKER_BATCH_LIMIT", 10),
		JobMaxAttempts:       getEnvInt("JOB_MAX_ATTEMPTS", 3),
		HTTPReadTimeout:      time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:     time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:      time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:      getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.StorageSigningSecret == "" {
		cfg.StorageSigningSecret = cfg.JWTSecret
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
