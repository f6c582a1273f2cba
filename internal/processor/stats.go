package processor

import (
	"sync"
	"time"
)

// Stats is a derived, read-only snapshot of a processor's statistics.
type Stats struct {
	TotalProcessed      int     `json:"total_processed"`
	TotalSuccessful     int     `json:"total_successful"`
	TotalFailed         int     `json:"total_failed"`
	TotalProcessingTime float64 `json:"total_processing_time"` // seconds
	AvgConfidence       float64 `json:"avg_confidence"`
	AvgCompleteness     float64 `json:"avg_completeness"`
	SuccessRate         float64 `json:"success_rate"`        // percent
	AvgProcessingTime   float64 `json:"avg_processing_time"` // seconds
}

// Statistics is the mutable aggregate owned by a single processor. All
// mutation goes through Update; Snapshot derives success rate and average
// processing time on read.
//
// The averaging denominators intentionally differ: confidence is averaged
// over all processed attempts, completeness over successful attempts only.
type Statistics struct {
	mu sync.Mutex

	totalProcessed      int
	totalSuccessful     int
	totalFailed         int
	totalProcessingTime float64 // seconds
	avgConfidence       float64
	avgCompleteness     float64
}

// Update records one processing attempt. confidence and completeness are
// optional; when present they are folded into the running averages with an
// incremental-mean update.
func (s *Statistics) Update(success bool, elapsed time.Duration, confidence, completeness *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalProcessed++
	if success {
		s.totalSuccessful++
	} else {
		s.totalFailed++
	}
	s.totalProcessingTime += elapsed.Seconds()

	if confidence != nil {
		n := float64(s.totalProcessed)
		s.avgConfidence = (s.avgConfidence*(n-1) + *confidence) / n
	}
	if completeness != nil && s.totalSuccessful > 0 {
		n := float64(s.totalSuccessful)
		s.avgCompleteness = (s.avgCompleteness*(n-1) + *completeness) / n
	}
}

// Snapshot returns the current statistics with derived fields.
func (s *Statistics) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Stats{
		TotalProcessed:      s.totalProcessed,
		TotalSuccessful:     s.totalSuccessful,
		TotalFailed:         s.totalFailed,
		TotalProcessingTime: s.totalProcessingTime,
		AvgConfidence:       s.avgConfidence,
		AvgCompleteness:     s.avgCompleteness,
	}
	if s.totalProcessed > 0 {
		out.SuccessRate = float64(s.totalSuccessful) / float64(s.totalProcessed) * 100
		out.AvgProcessingTime = s.totalProcessingTime / float64(s.totalProcessed)
	}
	return out
}
