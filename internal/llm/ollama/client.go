package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docflow/docproc/internal/llm"
)

// Chat implements llm.ChatClient against /api/chat with stream=false.
// When req.Format is set it is passed as Ollama's structured-output schema.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	slog.Debug("llm.chat.request",
		"req_id", rid,
		"model", req.Model,
		"prompt_len", len(req.Prompt),
		"structured", req.Format != nil,
	)

	options := map[string]any{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	if len(req.Stop) > 0 {
		options["stop"] = req.Stop
	}

	body := map[string]any{
		"model":    req.Model,
		"messages": []map[string]any{{"role": "user", "content": req.Prompt}},
		"stream":   false,
		"options":  options,
	}
	if req.Format != nil {
		body["format"] = req.Format
	}

	endpoint := strings.TrimRight(c.cfg.Host, "/") + "/api/chat"
	raw, status, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, nil, slog.Default())
	if err != nil {
		slog.Error("llm.chat.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	var cc struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Done bool `json:"done"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		slog.Error("llm.chat.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	content := strings.TrimSpace(cc.Message.Content)
	if content == "" {
		slog.Error("llm.chat.empty_content",
			"req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("empty content in ollama response")
	}

	slog.Debug("llm.chat.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
