package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds global settings for the Rampart copilot core.
// All settings can be configured via environment variables or programmatically.
type Config struct {
	// === Correlation Timing ===
	CorrelationWindow time.Duration // How far an event may sit from a chain's start and still join it (default: 2h)
	ChainTimeout      time.Duration // Idle span after which a chain is force-completed (default: 6h)
	IngestQueueSize   int           // Buffered event queue depth for the ingest worker (default: 1024)

	// === Intent Classification ===
	IntentRulesPath     string  // Path to the YAML rule artifact (default: "configs/intents.yaml")
	ConfidenceThreshold float64 // Classifications below this are treated as unclear (default: 0.5)

	// === Safety Planning ===
	KnownTools []string // Tool vocabulary for hallucination detection (comma-separated env)

	// === Optional Backends ===
	RedisURL    string // Shared chain registry; empty = in-memory registry
	PostgresDSN string // Completed chain / decision archive; empty = disabled
	ExportPath  string // JSONL training-data export; empty = disabled

	// === Server ===
	ListenAddr string // HTTP listen address (default: ":8080")
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		CorrelationWindow: GetEnvDuration("RAMPART_CORRELATION_WINDOW", 2*time.Hour),
		ChainTimeout:      GetEnvDuration("RAMPART_CHAIN_TIMEOUT", 6*time.Hour),
		IngestQueueSize:   clampInt(GetEnvInt("RAMPART_INGEST_QUEUE", 1024), 1, 1<<20),

		IntentRulesPath:     GetEnv("RAMPART_INTENT_RULES", "configs/intents.yaml"),
		ConfidenceThreshold: GetEnvFloat("RAMPART_CONFIDENCE_THRESHOLD", 0.5),

		KnownTools: GetEnvSlice("RAMPART_KNOWN_TOOLS", nil),

		RedisURL:    GetEnv("RAMPART_REDIS_URL", ""),
		PostgresDSN: GetEnv("RAMPART_POSTGRES_DSN", ""),
		ExportPath:  GetEnv("RAMPART_EXPORT_PATH", ""),

		ListenAddr: GetEnv("RAMPART_LISTEN_ADDR", ":8080"),
	}
}

// NewHighSecurityConfig creates a Config for maximum caution: shorter
// correlation timing so chains complete (and get reviewed) sooner, and
// a higher bar for treating a classification as actionable.
func NewHighSecurityConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.CorrelationWindow = time.Hour
	cfg.ChainTimeout = 3 * time.Hour
	cfg.ConfidenceThreshold = 0.7
	return cfg
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.CorrelationWindow <= 0 {
		return fmt.Errorf("correlation window must be positive, got %v", c.CorrelationWindow)
	}
	if c.ChainTimeout < c.CorrelationWindow {
		return fmt.Errorf("chain timeout %v must not be shorter than correlation window %v", c.ChainTimeout, c.CorrelationWindow)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in [0,1], got %f", c.ConfidenceThreshold)
	}
	if c.IngestQueueSize < 1 {
		return fmt.Errorf("ingest queue size must be at least 1, got %d", c.IngestQueueSize)
	}
	return nil
}

// MustValidate panics on invalid configuration. Used at startup where
// continuing with a broken config would be worse than crashing.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}
}

// Helper functions for environment variable parsing

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvDuration returns the duration value of an environment variable or a default value.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

// clampInt ensures a value is within bounds
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
