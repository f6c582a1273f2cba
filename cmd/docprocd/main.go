package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/docflow/docproc/internal/common"
	"github.com/docflow/docproc/internal/export"
	"github.com/docflow/docproc/internal/llm/ollama"
	"github.com/docflow/docproc/internal/pipeline"
	"github.com/docflow/docproc/internal/processor"
	"github.com/docflow/docproc/internal/processor/cv"
	"github.com/docflow/docproc/internal/processor/invoice"
	"github.com/docflow/docproc/internal/server"
)

func main() {
	cfg := common.LoadConfig()

	// stdout carries the MCP transport, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("main.config_invalid", "error", err)
		os.Exit(1)
	}

	client := ollama.New(ollama.Config{
		Host:    cfg.LLM.Host,
		Timeout: cfg.LLM.Timeout,
	})

	registry := processor.NewRegistry(logger)
	if err := registry.Register(invoice.New(client, cfg.LLM, logger)); err != nil {
		logger.Error("main.register_failed", "error", err)
		os.Exit(1)
	}
	if err := registry.Register(cv.New(client, cfg.LLM, logger)); err != nil {
		logger.Error("main.register_failed", "error", err)
		os.Exit(1)
	}

	pl := pipeline.New(registry, cfg.Chunking, logger)
	exporter := export.NewService(registry, logger)

	svc := server.NewService(registry, pl, exporter, logger)
	if err := svc.Serve(); err != nil {
		logger.Error("main.serve_failed", "error", err)
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
