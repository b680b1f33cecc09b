package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Upload limits
	MaxUploadBytes int64

	// Dataset session store
	DatasetTTL  time.Duration
	MaxDatasets int

	// Report response cache
	CacheTTL  time.Duration
	CacheSize int

	// Rate limiting for uploads
	RateLimitPerMin  int
	RateLimitCleanup time.Duration

	// Logging
	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 20<<20),
		DatasetTTL:     getEnvDuration("DATASET_TTL", 2*time.Hour),
		MaxDatasets:    getEnvInt("MAX_DATASETS", 50),
		CacheTTL:       getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheSize:      getEnvInt("CACHE_SIZE", 200),

		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MIN", 60),
		RateLimitCleanup: getEnvDuration("RATE_LIMIT_CLEANUP", 5*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.MaxUploadBytes < 1<<10 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be at least 1KiB", c.MaxUploadBytes))
	} else if c.MaxUploadBytes > 1<<30 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be at most 1GiB", c.MaxUploadBytes))
	}

	if c.DatasetTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid dataset TTL %v: must be at least 1 minute", c.DatasetTTL))
	} else if c.DatasetTTL > 7*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid dataset TTL %v: must be at most 7 days", c.DatasetTTL))
	}

	if c.MaxDatasets < 1 {
		errors = append(errors, fmt.Sprintf("invalid dataset cap %d: must be at least 1", c.MaxDatasets))
	}

	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	if c.RateLimitPerMin < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMin))
	}
	if c.RateLimitCleanup < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rate limit cleanup interval %v: must be at least 1 minute", c.RateLimitCleanup))
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	isValidLevel := false
	for _, lvl := range validLevels {
		if strings.EqualFold(c.LogLevel, lvl) {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
