// Command docproc processes a single document from a text file and prints
// the extraction result as JSON. Intended for local runs and smoke tests
// against a live Ollama instance.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/docflow/docproc/constants"
	"github.com/docflow/docproc/internal/common"
	"github.com/docflow/docproc/internal/export"
	"github.com/docflow/docproc/internal/llm/ollama"
	"github.com/docflow/docproc/internal/pipeline"
	"github.com/docflow/docproc/internal/processor"
	"github.com/docflow/docproc/internal/processor/cv"
	"github.com/docflow/docproc/internal/processor/invoice"
)

func main() {
	var (
		methodFlag = flag.String("method", string(constants.MethodHybrid), "extraction method: json_schema, prompt_parsing, or hybrid")
		typeFlag   = flag.String("type", "", "force document type (invoice, cv); empty for auto-detection")
		xlsxFlag   = flag.String("xlsx", "", "write the result and statistics to this XLSX file")
		statsFlag  = flag.Bool("stats", false, "print processor statistics after the run")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: docproc [flags] <file>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		fatal(logger, "invalid configuration", err)
	}

	method := constants.ExtractionMethod(*methodFlag)
	if !constants.ValidMethod(method) {
		fatal(logger, "invalid method flag", fmt.Errorf("unknown method %q", *methodFlag))
	}

	text, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fatal(logger, "read input file", err)
	}

	client := ollama.New(ollama.Config{
		Host:    cfg.LLM.Host,
		Timeout: cfg.LLM.Timeout,
	})

	registry := processor.NewRegistry(logger)
	if err := registry.Register(invoice.New(client, cfg.LLM, logger)); err != nil {
		fatal(logger, "register invoice processor", err)
	}
	if err := registry.Register(cv.New(client, cfg.LLM, logger)); err != nil {
		fatal(logger, "register cv processor", err)
	}

	pl := pipeline.New(registry, cfg.Chunking, logger)
	ctx := context.Background()

	var result *pipeline.Result
	if *typeFlag != "" {
		result, err = pl.ProcessAs(ctx, constants.DocumentType(*typeFlag), string(text), method)
	} else {
		result, err = pl.Process(ctx, string(text), method)
	}
	if err != nil {
		fatal(logger, "processing failed", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fatal(logger, "encode result", err)
	}
	fmt.Println(string(out))

	if *statsFlag {
		stats, err := json.MarshalIndent(registry.AllStatistics(), "", "  ")
		if err != nil {
			fatal(logger, "encode statistics", err)
		}
		fmt.Println(string(stats))
	}

	if *xlsxFlag != "" {
		exporter := export.NewService(registry, logger)
		data, err := exporter.ExportResultsXLSX([]*pipeline.Result{result})
		if err != nil {
			fatal(logger, "export xlsx", err)
		}
		if err := os.WriteFile(*xlsxFlag, data, 0o644); err != nil {
			fatal(logger, "write xlsx file", err)
		}
		logger.Info("main.xlsx_written", "path", *xlsxFlag, "bytes", len(data))
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error("main.fatal", "message", msg, "error", err)
	fmt.Fprintf(os.Stderr, "docproc: %s: %v\n", msg, err)
	os.Exit(1)
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
