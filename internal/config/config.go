package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config holds all runtime settings, resolved once at process start.
type Config struct {
	Port        string
	DatabaseDSN string

	JWTSecret string
	TokenTTL  time.Duration

	StorageBackend string
	FileRoot       string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string

	LogoSize      int
	SweepInterval time.Duration
}

// Load reads configuration from the environment. DATABASE_DSN and
// JWT_SECRET have no usable defaults and cause an error when absent.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseDSN:    os.Getenv("DATABASE_DSN"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		StorageBackend: getEnv("STORAGE_BACKEND", BackendLocal),
		FileRoot:       getEnv("FILE_ROOT", "files"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
	}

	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN environment variable is not set")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	ttlMinutes, err := getEnvInt("TOKEN_TTL_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	cfg.TokenTTL = time.Duration(ttlMinutes) * time.Minute

	cfg.LogoSize, err = getEnvInt("LOGO_SIZE", 200)
	if err != nil {
		return nil, err
	}

	if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
		cfg.SweepInterval, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SWEEP_INTERVAL %q: %w", raw, err)
		}
	}

	switch cfg.StorageBackend {
	case BackendLocal, BackendS3:
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND: %s", cfg.StorageBackend)
	}

	if cfg.StorageBackend == BackendS3 && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET environment variable is not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return value, nil
}
