// ABOUTME: Runtime configuration loaded from .env and environment variables
// ABOUTME: Covers the deal API location, preference backend, web port and reference server
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	BackendBadger = "badger"
	BackendCharm  = "charm"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	APIURL         string
	GatewayTimeout time.Duration
	WebPort        int
	PrefsBackend   string
	DataDir        string
	RedisURL       string
	Profile        string
	PipelinePolicy string
	SessionTTL     time.Duration

	ServerPort int
	ServerDB   string
}

// Load reads .env files (if present) and then the environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	dataDir := getEnv("DEALFLOW_DATA_DIR", filepath.Join(xdg.DataHome, "dealflow"))

	cfg := &Config{
		APIURL:         getEnv("DEALFLOW_API_URL", "http://localhost:4000"),
		GatewayTimeout: getEnvAsDuration("GATEWAY_TIMEOUT", 0),
		WebPort:        getEnvAsInt("DEALFLOW_WEB_PORT", 8080),
		PrefsBackend:   getEnv("DEALFLOW_PREFS_BACKEND", BackendBadger),
		DataDir:        dataDir,
		RedisURL:       getEnv("REDIS_URL", ""),
		Profile:        getEnv("DEALFLOW_PROFILE", "default"),
		PipelinePolicy: getEnv("PIPELINE_POLICY", "any"),
		SessionTTL:     getEnvAsDuration("DEALFLOW_SESSION_TTL", 30*time.Minute),
		ServerPort:     getEnvAsInt("DEALSRV_PORT", 4000),
		ServerDB:       getEnv("DEALSRV_DB", filepath.Join(dataDir, "dealsrv.db")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("DEALFLOW_API_URL is required")
	}
	switch c.PrefsBackend {
	case BackendBadger, BackendCharm, BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis preference backend")
		}
	default:
		return fmt.Errorf("unknown DEALFLOW_PREFS_BACKEND %q", c.PrefsBackend)
	}
	if c.Profile == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}
