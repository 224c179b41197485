// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Settings holds all application configuration.
type Settings struct {
	LLM    LLMConfig
	Engine EngineConfig
	Tools  ToolsConfig
	Memory MemoryConfig
	Store  StoreConfig
}

// LLMConfig holds generation provider configuration.
type LLMConfig struct {
	Provider    string
	MaxTokens   uint32
	Temperature float64
	// MaxConcurrent bounds simultaneously running turns.
	MaxConcurrent int
}

// EngineConfig holds orchestrator configuration.
type EngineConfig struct {
	ContextTokens int
	MaxBufferLen  int
}

// ToolsConfig holds capability dispatch configuration.
type ToolsConfig struct {
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
}

// MemoryConfig holds conversational memory configuration.
type MemoryConfig struct {
	MaxMessages     int
	WorkingTTL      time.Duration
	AccessThreshold int
	SweepInterval   time.Duration
}

// StoreConfig holds persistent store configuration.
type StoreConfig struct {
	// Path to the sqlite database file; empty selects in-memory.
	Path string
}

// New creates settings for the specified provider, loading values from
// environment variables. Returns an error if any variable holds a
// malformed value.
func New(provider string) (Settings, error) {
	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return Settings{}, err
	}
	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return Settings{}, err
	}
	maxConcurrent, err := getEnvInt("MAIA_MAX_CONCURRENT_TURNS", 4)
	if err != nil {
		return Settings{}, err
	}

	contextTokens, err := getEnvInt("MAIA_CONTEXT_TOKENS", 1000)
	if err != nil {
		return Settings{}, err
	}
	maxBufferLen, err := getEnvInt("MAIA_MAX_BUFFER_BYTES", 32*1024)
	if err != nil {
		return Settings{}, err
	}

	toolTimeout, err := getEnvDuration("MAIA_TOOL_TIMEOUT", 10*time.Second)
	if err != nil {
		return Settings{}, err
	}
	toolRetries, err := getEnvInt("MAIA_TOOL_MAX_RETRIES", 2)
	if err != nil {
		return Settings{}, err
	}
	toolBaseDelay, err := getEnvDuration("MAIA_TOOL_BASE_DELAY", 250*time.Millisecond)
	if err != nil {
		return Settings{}, err
	}

	maxMessages, err := getEnvInt("MAIA_MEMORY_MAX_MESSAGES", 50)
	if err != nil {
		return Settings{}, err
	}
	workingTTL, err := getEnvDuration("MAIA_MEMORY_TTL", time.Hour)
	if err != nil {
		return Settings{}, err
	}
	accessThreshold, err := getEnvInt("MAIA_MEMORY_ACCESS_THRESHOLD", 3)
	if err != nil {
		return Settings{}, err
	}
	sweepInterval, err := getEnvDuration("MAIA_MEMORY_SWEEP_INTERVAL", 5*time.Minute)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		LLM: LLMConfig{
			Provider:      provider,
			MaxTokens:     maxTokens,
			Temperature:   temperature,
			MaxConcurrent: maxConcurrent,
		},
		Engine: EngineConfig{
			ContextTokens: contextTokens,
			MaxBufferLen:  maxBufferLen,
		},
		Tools: ToolsConfig{
			Timeout:    toolTimeout,
			MaxRetries: toolRetries,
			BaseDelay:  toolBaseDelay,
		},
		Memory: MemoryConfig{
			MaxMessages:     maxMessages,
			WorkingTTL:      workingTTL,
			AccessThreshold: accessThreshold,
			SweepInterval:   sweepInterval,
		},
		Store: StoreConfig{
			Path: os.Getenv("MAIA_DB_PATH"),
		},
	}, nil
}

// MustNew creates settings for the specified provider.
// Panics if environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// Environment variable helpers with proper error handling

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	u, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(u), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return d, nil
}
