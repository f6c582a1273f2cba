package ollama

import (
	"net/http"
	"time"
)

// Config for the Ollama chat client.
type Config struct {
	Host    string // e.g. http://localhost:11434
	Timeout time.Duration
}

// Client talks to an Ollama-compatible /api/chat endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func New(cfg Config) *Client {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}
