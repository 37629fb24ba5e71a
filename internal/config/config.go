package config

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config carries every knob the pipeline and its surfaces consume. All values
// come from the environment with sensible defaults; validation happens once
// at load time.
type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	MaxRequestBodySize int64

	// Pipeline
	AnalysisEnabled        bool
	MaxConcurrentAnalyzers int
	// Cheap pixel-statistics analyzers (color, saliency, barcode, horizon)
	FastAnalyzerTimeout time.Duration
	// Model-backed analyzers (classification, objects, scene, landmark, text)
	ModelAnalyzerTimeout time.Duration

	// ResultCache ceilings
	CacheMaxEntries int
	CacheMaxBytes   int64

	// Diagnostics: force a backend mode regardless of detected capability.
	// Empty means "detect".
	ForcedBackendMode string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB

		AnalysisEnabled:        parseBoolOrDefault("ANALYSIS_ENABLED", true),
		MaxConcurrentAnalyzers: int(parseIntOrDefault("MAX_CONCURRENT_ANALYZERS", int64(runtime.NumCPU()))),
		FastAnalyzerTimeout:    parseDurationOrDefault("FAST_ANALYZER_TIMEOUT", 500*time.Millisecond),
		ModelAnalyzerTimeout:   parseDurationOrDefault("MODEL_ANALYZER_TIMEOUT", 3*time.Second),

		CacheMaxEntries: int(parseIntOrDefault("CACHE_MAX_ENTRIES", 256)),
		CacheMaxBytes:   parseIntOrDefault("CACHE_MAX_BYTES", 32*1024*1024),

		ForcedBackendMode: strings.TrimSpace(os.Getenv("FORCED_BACKEND_MODE")),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout)
	}
	if cfg.FastAnalyzerTimeout <= 0 || cfg.ModelAnalyzerTimeout <= 0 {
		return nil, fmt.Errorf("analyzer timeouts must be > 0 (got fast=%s, model=%s)",
			cfg.FastAnalyzerTimeout, cfg.ModelAnalyzerTimeout)
	}
	if cfg.MaxConcurrentAnalyzers < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_ANALYZERS must be >= 1 (got %d)", cfg.MaxConcurrentAnalyzers)
	}
	if cfg.CacheMaxEntries < 1 || cfg.CacheMaxBytes < 1 {
		return nil, fmt.Errorf("cache ceilings must be >= 1 (got entries=%d, bytes=%d)",
			cfg.CacheMaxEntries, cfg.CacheMaxBytes)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
