package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	LLM      LLMConfig
	Chunking ChunkingConfig
	LogLevel string
}

// LLMConfig holds Ollama-related configuration
type LLMConfig struct {
	Host        string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// ChunkingConfig holds text chunking configuration
type ChunkingConfig struct {
	Size      int
	Overlap   int
	Threshold int // documents longer than this (in chars) are chunked
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Host:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
			Model:       getEnv("OLLAMA_MODEL", "llama3:8b"),
			Temperature: getEnvAsFloat64("OLLAMA_TEMPERATURE", 0.1),
			MaxTokens:   getEnvAsInt("OLLAMA_MAX_TOKENS", 2048),
			Timeout:     getEnvAsDuration("OLLAMA_TIMEOUT", 120*time.Second),
		},
		Chunking: ChunkingConfig{
			Size:      getEnvAsInt("CHUNK_SIZE", 1000),
			Overlap:   getEnvAsInt("CHUNK_OVERLAP", 200),
			Threshold: getEnvAsInt("CHUNK_THRESHOLD", 2000),
		},
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.Host == "" {
		return NewAppError("CONFIG_ERROR", "OLLAMA_HOST is required", ErrInvalidInput)
	}
	if c.LLM.Model == "" {
		return NewAppError("CONFIG_ERROR", "OLLAMA_MODEL is required", ErrInvalidInput)
	}
	if c.Chunking.Size <= 0 {
		return NewAppError("CONFIG_ERROR", "CHUNK_SIZE must be positive", ErrInvalidInput)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return NewAppError("CONFIG_ERROR", "CHUNK_OVERLAP must be in [0, CHUNK_SIZE)", ErrInvalidInput)
	}
	return nil
}
