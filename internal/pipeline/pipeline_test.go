package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docflow/docproc/constants"
	"github.com/docflow/docproc/internal/common"
	"github.com/docflow/docproc/internal/processor"
)

type stubDoc struct {
	docType constants.DocumentType
	chunk   string
}

func (d *stubDoc) DocumentType() constants.DocumentType { return d.docType }

// stubProcessor records extraction and merge calls.
type stubProcessor struct {
	mu         sync.Mutex
	docType    constants.DocumentType
	confidence float64
	extractErr error
	extracted  []string
	merged     bool
	stats      processor.Statistics
}

func (p *stubProcessor) DocumentType() constants.DocumentType { return p.docType }
func (p *stubProcessor) DisplayName() string                  { return string(p.docType) }
func (p *stubProcessor) ToolName() string                     { return "process_" + string(p.docType) }
func (p *stubProcessor) ToolDescription() string              { return "stub" }
func (p *stubProcessor) Keywords() []string                   { return nil }
func (p *stubProcessor) JSONSchema() map[string]any           { return map[string]any{"type": "object"} }

func (p *stubProcessor) Classify(context.Context, string) (float64, error) {
	return p.confidence, nil
}

func (p *stubProcessor) Extract(_ context.Context, text string, _ constants.ExtractionMethod) (processor.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.extractErr != nil {
		return nil, p.extractErr
	}
	p.extracted = append(p.extracted, text)
	return &stubDoc{docType: p.docType, chunk: text}, nil
}

func (p *stubProcessor) Merge(partials []processor.Document) (processor.Document, error) {
	p.mu.Lock()
	p.merged = true
	p.mu.Unlock()
	return partials[0], nil
}

func (p *stubProcessor) Validate(processor.Document) (bool, float64, []string) {
	return true, 100.0, nil
}

func (p *stubProcessor) CustomMetrics(processor.Document) map[string]any {
	return map[string]any{"stubbed": true}
}

func (p *stubProcessor) UpdateStatistics(success bool, elapsed time.Duration, confidence, completeness *float64) {
	p.stats.Update(success, elapsed, confidence, completeness)
}

func (p *stubProcessor) Statistics() processor.Stats { return p.stats.Snapshot() }

func testChunking() common.ChunkingConfig {
	return common.ChunkingConfig{Size: 100, Overlap: 20, Threshold: 200}
}

func newTestPipeline(t *testing.T, procs ...processor.DocumentProcessor) *Pipeline {
	t.Helper()
	registry := processor.NewRegistry(nil)
	for _, p := range procs {
		require.NoError(t, registry.Register(p))
	}
	return New(registry, testChunking(), nil)
}

func TestProcessEmptyText(t *testing.T) {
	pl := newTestPipeline(t, &stubProcessor{docType: "invoice", confidence: 80})
	_, err := pl.Process(context.Background(), "", constants.MethodHybrid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestProcessUnknownMethod(t *testing.T) {
	pl := newTestPipeline(t, &stubProcessor{docType: "invoice", confidence: 80})
	_, err := pl.Process(context.Background(), "factuur", constants.ExtractionMethod("regex"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnknownMethod))
}

func TestProcessUnclassifiableDocument(t *testing.T) {
	pl := newTestPipeline(t, &stubProcessor{docType: "invoice", confidence: 0})
	_, err := pl.Process(context.Background(), "unrelated text", constants.MethodHybrid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestProcessShortDocumentSingleChunk(t *testing.T) {
	stub := &stubProcessor{docType: "invoice", confidence: 80}
	pl := newTestPipeline(t, stub)

	result, err := pl.Process(context.Background(), "short invoice text", constants.MethodHybrid)
	require.NoError(t, err)

	assert.Equal(t, constants.DocumentType("invoice"), result.DocumentType)
	assert.Equal(t, 80.0, result.Confidence)
	assert.Equal(t, 1, result.Chunks)
	assert.True(t, result.IsValid)
	assert.Equal(t, 100.0, result.Completeness)
	assert.Equal(t, map[string]any{"stubbed": true}, result.Metrics)
	assert.NotEmpty(t, result.RequestID)
	require.NotNil(t, result.Data)

	assert.Len(t, stub.extracted, 1)
	assert.False(t, stub.merged, "single chunk must not go through merge")

	// The pipeline records the run with the classification confidence.
	snap := stub.Statistics()
	assert.Equal(t, 1, snap.TotalProcessed)
	assert.InDelta(t, 80.0, snap.AvgConfidence, 1e-9)
}

func TestProcessLongDocumentIsChunkedAndMerged(t *testing.T) {
	stub := &stubProcessor{docType: "invoice", confidence: 80}
	pl := newTestPipeline(t, stub)

	text := strings.Repeat("factuur regel met bedrag\n", 40)
	require.Greater(t, len(text), testChunking().Threshold)

	result, err := pl.Process(context.Background(), text, constants.MethodHybrid)
	require.NoError(t, err)

	assert.Greater(t, result.Chunks, 1)
	assert.Greater(t, len(stub.extracted), 1)
	assert.True(t, stub.merged)
}

func TestProcessAllChunksFail(t *testing.T) {
	stub := &stubProcessor{docType: "invoice", confidence: 80, extractErr: errors.New("llm down")}
	pl := newTestPipeline(t, stub)

	_, err := pl.Process(context.Background(), "factuur", constants.MethodHybrid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNoExtraction))

	snap := stub.Statistics()
	assert.Equal(t, 1, snap.TotalProcessed)
	assert.Equal(t, 1, snap.TotalFailed)
}

func TestProcessPicksHighestConfidenceProcessor(t *testing.T) {
	invoice := &stubProcessor{docType: "invoice", confidence: 30}
	cv := &stubProcessor{docType: "cv", confidence: 70}
	pl := newTestPipeline(t, invoice, cv)

	result, err := pl.Process(context.Background(), "some text", constants.MethodHybrid)
	require.NoError(t, err)
	assert.Equal(t, constants.DocumentType("cv"), result.DocumentType)
	assert.Empty(t, invoice.extracted)
	assert.Len(t, cv.extracted, 1)
}

func TestProcessAsSkipsClassification(t *testing.T) {
	stub := &stubProcessor{docType: "invoice", confidence: 0}
	pl := newTestPipeline(t, stub)

	result, err := pl.ProcessAs(context.Background(), "invoice", "text without any keywords", constants.MethodJSONSchema)
	require.NoError(t, err)
	assert.Equal(t, constants.DocumentType("invoice"), result.DocumentType)
	assert.Equal(t, 100.0, result.Confidence)
}

func TestProcessAsUnknownType(t *testing.T) {
	pl := newTestPipeline(t, &stubProcessor{docType: "invoice"})
	_, err := pl.ProcessAs(context.Background(), "receipt", "text", constants.MethodHybrid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}
