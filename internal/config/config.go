// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all harvester configuration, read from the environment.
type Config struct {
	// Upstream catalog
	BaseURL   string
	UserAgent string

	// HTTP behavior
	Timeout         time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
	RespectfulDelay time.Duration

	// Concurrency
	ParallelEnabled         bool
	ParallelMaxWorkers      int
	ParallelSessionPoolSize int
	ParallelInterTaskDelay  time.Duration

	// Encoding
	EncodingFixLegacy bool

	// Persistence
	DatabaseURL string
}

const (
	defaultBaseURL   = "https://evlvz.hrz.tu-freiberg.de/~vover/"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// Load builds a Config from environment variables, applying the defaults
// documented in the harvester's external interface contract.
func Load() (Config, error) {
	cfg := Config{
		BaseURL:                 getEnv("HARVESTER_BASE_URL", defaultBaseURL),
		UserAgent:               getEnv("HARVESTER_USER_AGENT", defaultUserAgent),
		Timeout:                 getEnvDuration("HARVESTER_TIMEOUT", 30*time.Second),
		MaxRetries:              getEnvInt("HARVESTER_MAX_RETRIES", 3),
		RetryDelay:              getEnvDuration("HARVESTER_RETRY_DELAY", 2*time.Second),
		RespectfulDelay:         getEnvDuration("HARVESTER_RESPECTFUL_DELAY", 0),
		ParallelEnabled:         getEnvBool("HARVESTER_PARALLEL_ENABLED", true),
		ParallelMaxWorkers:      getEnvInt("HARVESTER_PARALLEL_MAX_WORKERS", 4),
		ParallelSessionPoolSize: getEnvInt("HARVESTER_PARALLEL_SESSION_POOL_SIZE", 4),
		ParallelInterTaskDelay:  getEnvDuration("HARVESTER_PARALLEL_INTER_TASK_DELAY", 0),
		EncodingFixLegacy:       getEnvBool("HARVESTER_ENCODING_FIX_LEGACY", true),
		DatabaseURL:             getEnv("DATABASE_URL", "file:harvester.db"),
	}

	if err := cfg.clampAndValidate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// clampAndValidate enforces the bounds from the external interface contract:
// maxWorkers in [1, 32], sessionPoolSize in [1, min(maxWorkers, 32)].
func (c *Config) clampAndValidate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config: baseUrl must not be empty")
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.ParallelMaxWorkers < 1 {
		c.ParallelMaxWorkers = 1
	}
	if c.ParallelMaxWorkers > 32 {
		c.ParallelMaxWorkers = 32
	}
	if c.ParallelSessionPoolSize < 1 {
		c.ParallelSessionPoolSize = 1
	}
	maxPool := c.ParallelMaxWorkers
	if maxPool > 32 {
		maxPool = 32
	}
	if c.ParallelSessionPoolSize > maxPool {
		c.ParallelSessionPoolSize = maxPool
	}
	if c.ParallelInterTaskDelay < 0 {
		c.ParallelInterTaskDelay = 0
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
