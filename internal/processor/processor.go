// Package processor defines the per-document-type processing capability and
// the registry that fans classification out across all registered types.
package processor

import (
	"context"
	"strings"
	"time"

	"github.com/docflow/docproc/constants"
)

// Document is structured data extracted by a processor. Concrete types
// (invoice data, CV data) live in the per-type subpackages; ownership moves
// to the caller once a Document is returned.
type Document interface {
	DocumentType() constants.DocumentType
}

// DocumentProcessor owns everything specific to one document type:
// classification, extraction, validation, merging of chunked partials, and
// statistics. One instance per type, registered into exactly one Registry.
type DocumentProcessor interface {
	// Metadata, immutable per instance.
	DocumentType() constants.DocumentType
	DisplayName() string
	ToolName() string
	ToolDescription() string

	// Keywords returns the lowercase classification keywords, sorted.
	Keywords() []string

	// JSONSchema returns the schema of the structured output in map form,
	// suitable both for structured LLM output and local validation.
	JSONSchema() map[string]any

	// Classify returns a confidence score in [0,100] that text is this
	// processor's document type. Deterministic for a given input. When
	// invoked directly an error propagates; the Registry isolates it.
	Classify(ctx context.Context, text string) (float64, error)

	// Extract runs one extraction with the given method and returns the
	// validated structured record. A nil Document with common.ErrNoExtraction
	// means every attempted method failed to produce validatable data;
	// common.ErrUnknownMethod means the method is outside the closed enum.
	// Updates the processor's statistics exactly once per call.
	Extract(ctx context.Context, text string, method constants.ExtractionMethod) (Document, error)

	// Merge combines chunk-scoped partials into one record: first non-empty
	// value wins for scalar fields, list fields are concatenated and
	// fuzzily deduplicated. Idempotent.
	Merge(partials []Document) (Document, error)

	// Validate reports (is_valid, completeness 0-100, issues). It never
	// fails for data-shape problems; those land in the issues list.
	Validate(data Document) (bool, float64, []string)

	// CustomMetrics derives processor-specific numbers from extracted data.
	// Pure; no statistics mutation.
	CustomMetrics(data Document) map[string]any

	// UpdateStatistics is the only statistics mutator.
	UpdateStatistics(success bool, elapsed time.Duration, confidence, completeness *float64)

	// Statistics is a pure read returning a derived snapshot.
	Statistics() Stats
}

// KeywordConfidence is the baseline classification signal: each keyword found
// in the text contributes 10 points, capped at 100. Matching is a lowercase
// substring test, so multi-word keywords ("curriculum vitae") work too.
func KeywordConfidence(text string, keywords []string) float64 {
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, kw) {
			hits++
		}
	}
	confidence := float64(hits) * 10.0
	if confidence > 100.0 {
		confidence = 100.0
	}
	return confidence
}
