// Package pipeline runs the end-to-end flow: classify, chunk when needed,
// extract, merge, validate.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docflow/docproc/constants"
	"github.com/docflow/docproc/internal/chunk"
	"github.com/docflow/docproc/internal/common"
	"github.com/docflow/docproc/internal/processor"
)

// Result is the outcome of one full pipeline run.
type Result struct {
	RequestID      string                 `json:"request_id"`
	DocumentType   constants.DocumentType `json:"document_type"`
	Confidence     float64                `json:"confidence"`
	Data           processor.Document     `json:"data"`
	IsValid        bool                   `json:"is_valid"`
	Completeness   float64                `json:"completeness"`
	Issues         []string               `json:"issues,omitempty"`
	Metrics        map[string]any         `json:"metrics,omitempty"`
	Chunks         int                    `json:"chunks"`
	ProcessingTime time.Duration          `json:"processing_time"`
}

// Pipeline wires the registry and the chunker together.
type Pipeline struct {
	registry *processor.Registry
	chunking common.ChunkingConfig
	logger   *slog.Logger
}

func New(registry *processor.Registry, chunking common.ChunkingConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{registry: registry, chunking: chunking, logger: logger}
}

// Process classifies text against every registered processor, extracts with
// the given method (chunked when the text exceeds the chunking threshold),
// merges chunk partials, and validates the final record.
//
// The winning processor's statistics are updated with the classification
// confidence on top of the per-extraction updates it records itself.
func (pl *Pipeline) Process(ctx context.Context, text string, method constants.ExtractionMethod) (*Result, error) {
	reqID := uuid.NewString()
	start := time.Now()
	log := pl.logger.With("req_id", reqID)

	if text == "" {
		return nil, fmt.Errorf("%w: empty document text", common.ErrInvalidInput)
	}
	if !constants.ValidMethod(method) {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownMethod, method)
	}

	log.Info("pipeline.start", "text_length", len(text), "method", method)

	cls := pl.registry.ClassifyDocument(ctx, text)
	if cls.Processor == nil {
		log.Warn("pipeline.unknown_type")
		return nil, fmt.Errorf("%w: document type could not be determined", common.ErrInvalidInput)
	}
	return pl.run(ctx, log, reqID, start, cls.Processor, cls.Confidence, text, method)
}

// ProcessAs skips classification and runs the pipeline with the processor
// registered for docType. Confidence is reported as 100.
func (pl *Pipeline) ProcessAs(ctx context.Context, docType constants.DocumentType, text string, method constants.ExtractionMethod) (*Result, error) {
	reqID := uuid.NewString()
	start := time.Now()
	log := pl.logger.With("req_id", reqID)

	if text == "" {
		return nil, fmt.Errorf("%w: empty document text", common.ErrInvalidInput)
	}
	if !constants.ValidMethod(method) {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownMethod, method)
	}
	p, ok := pl.registry.Get(docType)
	if !ok {
		return nil, fmt.Errorf("%w: no processor for %q", common.ErrInvalidInput, docType)
	}

	log.Info("pipeline.start", "text_length", len(text), "method", method, "forced_type", docType)
	return pl.run(ctx, log, reqID, start, p, 100.0, text, method)
}

func (pl *Pipeline) run(
	ctx context.Context,
	log *slog.Logger,
	reqID string,
	start time.Time,
	p processor.DocumentProcessor,
	confidence float64,
	text string,
	method constants.ExtractionMethod,
) (*Result, error) {
	chunks := []string{text}
	if pl.chunking.Threshold > 0 && len(text) > pl.chunking.Threshold {
		chunks = chunk.Split(text, chunk.Options{Size: pl.chunking.Size, Overlap: pl.chunking.Overlap})
		log.Info("pipeline.chunked", "chunks", len(chunks), "threshold", pl.chunking.Threshold)
	}

	var partials []processor.Document
	for i, c := range chunks {
		doc, err := p.Extract(ctx, c, method)
		if err != nil {
			log.Warn("pipeline.chunk_failed", "chunk", i, "error", err)
			continue
		}
		partials = append(partials, doc)
	}
	if len(partials) == 0 {
		p.UpdateStatistics(false, time.Since(start), &confidence, nil)
		log.Error("pipeline.no_partials")
		return nil, fmt.Errorf("%w: every chunk failed", common.ErrNoExtraction)
	}

	doc := partials[0]
	if len(partials) > 1 {
		log.Info("pipeline.stage", "stage", constants.StageMerging, "partials", len(partials))
		merged, err := p.Merge(partials)
		if err != nil {
			log.Error("pipeline.merge_failed", "error", err)
			return nil, fmt.Errorf("merge partials: %w", err)
		}
		doc = merged
	}

	isValid, completeness, issues := p.Validate(doc)
	p.UpdateStatistics(true, time.Since(start), &confidence, nil)

	elapsed := time.Since(start)
	log.Info("pipeline.done",
		"document_type", p.DocumentType(),
		"confidence", confidence,
		"is_valid", isValid,
		"completeness", completeness,
		"chunks", len(chunks),
		"elapsed_ms", elapsed.Milliseconds())

	return &Result{
		RequestID:      reqID,
		DocumentType:   p.DocumentType(),
		Confidence:     confidence,
		Data:           doc,
		IsValid:        isValid,
		Completeness:   completeness,
		Issues:         issues,
		Metrics:        p.CustomMetrics(doc),
		Chunks:         len(chunks),
		ProcessingTime: elapsed,
	}, nil
}
