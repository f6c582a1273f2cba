package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "http://localhost:11434", cfg.LLM.Host)
	assert.Equal(t, "llama3:8b", cfg.LLM.Model)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 1000, cfg.Chunking.Size)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, 2000, cfg.Chunking.Threshold)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://ollama.internal:11434")
	t.Setenv("OLLAMA_MODEL", "mistral:7b")
	t.Setenv("OLLAMA_TEMPERATURE", "0.4")
	t.Setenv("OLLAMA_MAX_TOKENS", "4096")
	t.Setenv("OLLAMA_TIMEOUT", "30s")
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("CHUNK_THRESHOLD", "1500")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := LoadConfig()
	assert.Equal(t, "http://ollama.internal:11434", cfg.LLM.Host)
	assert.Equal(t, "mistral:7b", cfg.LLM.Model)
	assert.InDelta(t, 0.4, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("OLLAMA_MAX_TOKENS", "many")
	t.Setenv("OLLAMA_TEMPERATURE", "warm")
	t.Setenv("OLLAMA_TIMEOUT", "soon")

	cfg := LoadConfig()
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
}

func TestValidateRejectsBadChunking(t *testing.T) {
	cfg := LoadConfig()
	cfg.Chunking.Overlap = cfg.Chunking.Size
	require.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.Chunking.Size = 0
	require.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.LLM.Host = ""
	require.Error(t, cfg.Validate())
}
