package processor

import (
	"context"
	"time"

	"github.com/docflow/docproc/constants"
)

// fakeDoc is a minimal Document for registry and stream tests.
type fakeDoc struct {
	docType constants.DocumentType
	fields  map[string]string
}

func (d *fakeDoc) DocumentType() constants.DocumentType { return d.docType }

// fakeProcessor is a scriptable DocumentProcessor.
type fakeProcessor struct {
	docType     constants.DocumentType
	confidence  float64
	classifyErr error
	classifyFn  func(ctx context.Context, text string) (float64, error)
	extractFn   func(ctx context.Context, text string, method constants.ExtractionMethod) (Document, error)
	validateFn  func(data Document) (bool, float64, []string)
	stats       Statistics
}

func (p *fakeProcessor) DocumentType() constants.DocumentType { return p.docType }
func (p *fakeProcessor) DisplayName() string                  { return string(p.docType) }
func (p *fakeProcessor) ToolName() string                     { return "process_" + string(p.docType) }
func (p *fakeProcessor) ToolDescription() string              { return "test processor" }
func (p *fakeProcessor) Keywords() []string                   { return []string{string(p.docType)} }
func (p *fakeProcessor) JSONSchema() map[string]any           { return map[string]any{"type": "object"} }

func (p *fakeProcessor) Classify(ctx context.Context, text string) (float64, error) {
	if p.classifyFn != nil {
		return p.classifyFn(ctx, text)
	}
	return p.confidence, p.classifyErr
}

func (p *fakeProcessor) Extract(ctx context.Context, text string, method constants.ExtractionMethod) (Document, error) {
	if p.extractFn != nil {
		return p.extractFn(ctx, text, method)
	}
	return &fakeDoc{docType: p.docType}, nil
}

func (p *fakeProcessor) Merge(partials []Document) (Document, error) {
	if len(partials) == 0 {
		return nil, nil
	}
	return partials[0], nil
}

func (p *fakeProcessor) Validate(data Document) (bool, float64, []string) {
	if p.validateFn != nil {
		return p.validateFn(data)
	}
	return true, 100.0, nil
}

func (p *fakeProcessor) CustomMetrics(data Document) map[string]any { return map[string]any{} }

func (p *fakeProcessor) UpdateStatistics(success bool, elapsed time.Duration, confidence, completeness *float64) {
	p.stats.Update(success, elapsed, confidence, completeness)
}

func (p *fakeProcessor) Statistics() Stats { return p.stats.Snapshot() }
