package constants

// Stage is the canonical processing stage reported in status snapshots.
type Stage string

// Stable values (reported to clients, do not rename).
const (
	StageClassification Stage = "classification" // always initial
	StageExtraction     Stage = "extraction"     // LLM call in flight
	StageValidation     Stage = "validation"     // extracted data being scored
	StageMerging        Stage = "merging"        // chunked partials being combined
	StageCompleted      Stage = "completed"      // terminal success
	StageFailed         Stage = "failed"         // terminal failure
)

// Terminal reports whether s ends a processing run.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}
