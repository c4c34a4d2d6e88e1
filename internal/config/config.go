// Package config reads service configuration from the environment, loading
// a .env file first when present.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the environment-level settings for the service. Backend
// selection between Redis and the in-memory fallback happens once at
// startup from RedisURL reachability.
type Config struct {
	Port       string
	RedisURL   string
	StudiesDir string
	OutputDir  string
	Workers    int
	QueueSize  int
	// SegmentCmd is the external segmentation command and its fixed leading
	// arguments. When empty, runs are simulated.
	SegmentCmd []string
}

// Load reads configuration from the environment with defaults
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:       getEnv("PORT", "8080"),
		RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379"),
		StudiesDir: getEnv("STUDIES_DIR", "storage/studies"),
		OutputDir:  getEnv("OUTPUT_DIR", "output"),
		Workers:    getEnvInt("WORKERS", 2),
		QueueSize:  getEnvInt("QUEUE_SIZE", 64),
	}
	if cmd := os.Getenv("SEGMENT_CMD"); cmd != "" {
		cfg.SegmentCmd = []string{cmd}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
