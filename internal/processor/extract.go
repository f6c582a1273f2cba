package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/docflow/docproc/constants"
	"github.com/docflow/docproc/internal/common"
)

// AttemptFunc runs one non-hybrid extraction attempt for a concrete
// processor: a single LLM call plus parse and model validation.
type AttemptFunc func(ctx context.Context, text string, method constants.ExtractionMethod) (Document, error)

// RunExtraction is the method-selection control flow shared by every
// processor. It validates the method, orchestrates the hybrid fallback, and
// records exactly one statistics update for the call.
//
// Hybrid: try json_schema; accept it outright when its completeness reaches
// the acceptance threshold; otherwise try prompt_parsing and return its
// result; if prompt_parsing also fails, fall back to the incomplete
// json_schema result when one exists. Both failing is an absence
// (common.ErrNoExtraction), not a transport error.
func RunExtraction(
	ctx context.Context,
	p DocumentProcessor,
	attempt AttemptFunc,
	text string,
	method constants.ExtractionMethod,
	stats *Statistics,
	log *slog.Logger,
) (Document, error) {
	if !constants.ValidMethod(method) {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownMethod, method)
	}
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()
	log = log.With("processor", p.DocumentType(), "tool", p.ToolName())

	log.Info("processor.extract.start", "method", method, "text_length", len(text))

	if method != constants.MethodHybrid {
		doc, err := attempt(ctx, text, method)
		if err != nil || doc == nil {
			stats.Update(false, time.Since(start), nil, nil)
			if err != nil {
				log.Error("processor.extract.failed", "method", method, "error", err)
				return nil, fmt.Errorf("extract with %s: %w", method, err)
			}
			return nil, fmt.Errorf("%w: method %s", common.ErrNoExtraction, method)
		}
		_, completeness, _ := p.Validate(doc)
		stats.Update(true, time.Since(start), nil, &completeness)
		log.Info("processor.extract.ok", "method", method, "completeness", completeness)
		return doc, nil
	}

	// Hybrid mode: schema-constrained first.
	jsonDoc, jsonErr := attempt(ctx, text, constants.MethodJSONSchema)
	if jsonErr != nil {
		log.Warn("processor.extract.json_schema_failed", "error", jsonErr)
	}
	if jsonDoc != nil {
		_, completeness, _ := p.Validate(jsonDoc)
		if completeness >= constants.HybridCompletenessThreshold {
			stats.Update(true, time.Since(start), nil, &completeness)
			log.Info("processor.extract.ok",
				"method", constants.MethodJSONSchema, "completeness", completeness)
			return jsonDoc, nil
		}
		log.Warn("processor.extract.json_schema_incomplete",
			"completeness", completeness,
			"threshold", constants.HybridCompletenessThreshold)
	}

	promptDoc, promptErr := attempt(ctx, text, constants.MethodPromptParsing)
	if promptErr != nil {
		log.Warn("processor.extract.prompt_parsing_failed", "error", promptErr)
	}
	if promptDoc != nil {
		_, completeness, _ := p.Validate(promptDoc)
		stats.Update(true, time.Since(start), nil, &completeness)
		log.Info("processor.extract.ok",
			"method", constants.MethodPromptParsing, "completeness", completeness)
		return promptDoc, nil
	}

	// Prompt parsing produced nothing; an incomplete json_schema result
	// still beats no result.
	if jsonDoc != nil {
		log.Warn("processor.extract.fallback_incomplete_result")
		stats.Update(true, time.Since(start), nil, nil)
		return jsonDoc, nil
	}

	stats.Update(false, time.Since(start), nil, nil)
	log.Error("processor.extract.all_methods_failed")
	return nil, errors.Join(
		fmt.Errorf("%w: tried json_schema and prompt_parsing", common.ErrNoExtraction),
		jsonErr, promptErr,
	)
}
