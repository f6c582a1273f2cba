package processor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/docflow/docproc/constants"
	"github.com/docflow/docproc/internal/common"
)

// Classification is the outcome of registry-level classification. Processor
// is nil and DocumentType is constants.DocTypeUnknown when no processor
// scored above zero.
type Classification struct {
	DocumentType constants.DocumentType
	Confidence   float64
	Processor    DocumentProcessor
}

// GlobalStats aggregates counts across every registered processor.
type GlobalStats struct {
	TotalDocumentsProcessed int     `json:"total_documents_processed"`
	TotalSuccessful         int     `json:"total_successful"`
	TotalFailed             int     `json:"total_failed"`
	GlobalSuccessRate       float64 `json:"global_success_rate"`
}

// ProcessorStats is one processor's snapshot plus identifying metadata.
type ProcessorStats struct {
	Stats
	ProcessorType string `json:"processor_type"`
	DisplayName   string `json:"display_name"`
}

// RegistryStats is the full aggregate returned by AllStatistics.
type RegistryStats struct {
	TotalProcessors int                       `json:"total_processors"`
	ProcessorTypes  []string                  `json:"processor_types"`
	Processors      map[string]ProcessorStats `json:"processors"`
	Global          GlobalStats               `json:"global"`
}

// Registry owns the set of registered processors. Registration order is kept
// for deterministic iteration and classification tie-breaking.
type Registry struct {
	mu         sync.RWMutex
	processors map[constants.DocumentType]DocumentProcessor
	order      []constants.DocumentType

	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		processors: make(map[constants.DocumentType]DocumentProcessor),
		logger:     logger,
	}
}

// Register inserts p, failing with common.ErrDuplicateProcessor when a
// processor for the same document type already exists. No partial state on
// failure.
func (r *Registry) Register(p DocumentProcessor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	docType := p.DocumentType()
	if _, exists := r.processors[docType]; exists {
		return fmt.Errorf("%w: %s", common.ErrDuplicateProcessor, docType)
	}
	r.processors[docType] = p
	r.order = append(r.order, docType)

	r.logger.Info("registry.register",
		"document_type", docType,
		"display_name", p.DisplayName(),
		"tool_name", p.ToolName(),
	)
	return nil
}

// Unregister removes the processor for docType, reporting whether it was
// present. The removed instance keeps its statistics; it simply becomes
// unreachable.
func (r *Registry) Unregister(docType constants.DocumentType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.processors[docType]; !exists {
		return false
	}
	delete(r.processors, docType)
	for i, t := range r.order {
		if t == docType {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Info("registry.unregister", "document_type", docType)
	return true
}

// Get is a pure lookup.
func (r *Registry) Get(docType constants.DocumentType) (DocumentProcessor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.processors[docType]
	return p, ok
}

// Processors returns all registered processors in registration order.
func (r *Registry) Processors() []DocumentProcessor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DocumentProcessor, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.processors[t])
	}
	return out
}

// Types returns the registered document types in registration order.
func (r *Registry) Types() []constants.DocumentType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]constants.DocumentType(nil), r.order...)
}

// ClassifyDocument dispatches Classify to every registered processor
// concurrently and picks the winner.
//
// Selection: strictly highest confidence; an exact tie goes to the processor
// registered first. A processor whose Classify returns an error or panics is
// excluded (scored as an abstention) and logged; it never aborts the others.
// Zero registered processors, or all of them scoring zero or failing, yields
// the unknown sentinel with confidence 0 and a nil processor.
func (r *Registry) ClassifyDocument(ctx context.Context, text string) Classification {
	procs := r.Processors()
	if len(procs) == 0 {
		r.logger.Warn("registry.classify.no_processors")
		return Classification{DocumentType: constants.DocTypeUnknown}
	}

	scores := make([]float64, len(procs))
	errs := make([]error, len(procs))

	var wg sync.WaitGroup
	for i, p := range procs {
		wg.Add(1)
		go func(i int, p DocumentProcessor) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					errs[i] = fmt.Errorf("classify panic: %v", rec)
				}
			}()
			scores[i], errs[i] = p.Classify(ctx, text)
		}(i, p)
	}
	wg.Wait()

	best := -1
	bestScore := 0.0
	for i, p := range procs {
		if errs[i] != nil {
			r.logger.Error("registry.classify.processor_error",
				"document_type", p.DocumentType(), "error", errs[i])
			continue
		}
		r.logger.Debug("registry.classify.score",
			"document_type", p.DocumentType(), "confidence", scores[i])
		if scores[i] > bestScore {
			bestScore = scores[i]
			best = i
		}
	}

	if best == -1 {
		r.logger.Warn("registry.classify.unknown")
		return Classification{DocumentType: constants.DocTypeUnknown}
	}

	winner := procs[best]
	r.logger.Info("registry.classify.winner",
		"document_type", winner.DocumentType(), "confidence", bestScore)
	return Classification{
		DocumentType: winner.DocumentType(),
		Confidence:   bestScore,
		Processor:    winner,
	}
}

// AllStatistics aggregates each processor's snapshot under its document type
// plus a global section. Pure read; consistent as of the call.
func (r *Registry) AllStatistics() RegistryStats {
	procs := r.Processors()

	out := RegistryStats{
		TotalProcessors: len(procs),
		ProcessorTypes:  make([]string, 0, len(procs)),
		Processors:      make(map[string]ProcessorStats, len(procs)),
	}

	for _, p := range procs {
		docType := p.DocumentType().String()
		snap := p.Statistics()
		out.ProcessorTypes = append(out.ProcessorTypes, docType)
		out.Processors[docType] = ProcessorStats{
			Stats:         snap,
			ProcessorType: docType,
			DisplayName:   p.DisplayName(),
		}
		out.Global.TotalDocumentsProcessed += snap.TotalProcessed
		out.Global.TotalSuccessful += snap.TotalSuccessful
		out.Global.TotalFailed += snap.TotalFailed
	}
	if out.Global.TotalDocumentsProcessed > 0 {
		out.Global.GlobalSuccessRate = float64(out.Global.TotalSuccessful) /
			float64(out.Global.TotalDocumentsProcessed) * 100
	}
	return out
}
