package config

import (
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Config holds all build configuration values. Every field has a default,
// so a bare invocation runs the transform once with no setup.
type Config struct {
	InputPath  string // GPUCATALOG_INPUT, default: data/gpus.yaml
	OutputPath string // GPUCATALOG_OUTPUT, default: gpu_data.json; .yaml/.yml selects YAML

	Compress         bool // GPUCATALOG_COMPRESS, default: false; also writes <output>.zst
	CompressionLevel int  // GPUCATALOG_COMPRESSION_LEVEL, default: 3 (1-4)

	// Kubernetes ConfigMap manifest
	ConfigMapPath      string // GPUCATALOG_CONFIGMAP_OUTPUT, default: "" (disabled)
	ConfigMapName      string // GPUCATALOG_CONFIGMAP_NAME, default: gpu-catalog
	ConfigMapNamespace string // GPUCATALOG_CONFIGMAP_NAMESPACE, default: default

	MetricsTextfile string // GPUCATALOG_METRICS_TEXTFILE, default: "" (disabled)

	Workers int           // GPUCATALOG_WORKERS, default: 0 (GOMAXPROCS)
	Timeout time.Duration // GPUCATALOG_TIMEOUT, default: 1m

	LogLevel  string // GPUCATALOG_LOG_LEVEL, default: info
	LogFormat string // GPUCATALOG_LOG_FORMAT, default: text

	BuildID string // GPUCATALOG_BUILD_ID, default: random UUID
}

// Load reads configuration from environment variables and returns a Config
// with defaults applied for any unset values.
func Load() Config {
	cfg := Config{
		InputPath:          envOrDefault("GPUCATALOG_INPUT", "data/gpus.yaml"),
		OutputPath:         envOrDefault("GPUCATALOG_OUTPUT", "gpu_data.json"),
		Compress:           parseBool("GPUCATALOG_COMPRESS", false),
		CompressionLevel:   parseInt("GPUCATALOG_COMPRESSION_LEVEL", 3),
		ConfigMapPath:      os.Getenv("GPUCATALOG_CONFIGMAP_OUTPUT"),
		ConfigMapName:      envOrDefault("GPUCATALOG_CONFIGMAP_NAME", "gpu-catalog"),
		ConfigMapNamespace: envOrDefault("GPUCATALOG_CONFIGMAP_NAMESPACE", "default"),
		MetricsTextfile:    os.Getenv("GPUCATALOG_METRICS_TEXTFILE"),
		Workers:            parseInt("GPUCATALOG_WORKERS", 0),
		Timeout:            parseDuration("GPUCATALOG_TIMEOUT", time.Minute),
		LogLevel:           envOrDefault("GPUCATALOG_LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("GPUCATALOG_LOG_FORMAT", "text"),
		BuildID:            os.Getenv("GPUCATALOG_BUILD_ID"),
	}

	if cfg.BuildID == "" {
		cfg.BuildID = uuid.New().String()
	}

	return cfg
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// parseDuration tries time.ParseDuration first, then falls back to treating
// the value as integer seconds.
func parseDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(v)
	if err == nil {
		return d
	}

	// Fallback: treat as integer seconds
	secs, err := strconv.Atoi(v)
	if err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultVal
}

func parseBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func parseInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
