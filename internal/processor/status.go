package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/docflow/docproc/constants"
)

// Status is the transient state of a single processing run.
type Status struct {
	Stage          constants.Stage `json:"stage"`
	Progress       float64         `json:"progress"` // 0-100, non-decreasing within a run
	Message        string          `json:"message"`
	ItemsProcessed int             `json:"items_processed"`
	ItemsTotal     int             `json:"items_total"`
	StartTime      time.Time       `json:"start_time"`
	Errors         []string        `json:"errors,omitempty"`
}

// Snapshot pairs a status with the extracted data. Data is nil on every
// snapshot except the completed terminal one.
type Snapshot struct {
	Status Status
	Data   Document
}

// ExtractStream runs a single extraction as an ordered, finite sequence of
// status snapshots: classification(10) -> extraction(30) -> validation(80) ->
// completed(100) with data, or failed(100) with at least one recorded error.
// Exactly one terminal snapshot is sent, always last, and the channel is then
// closed. Internal errors and panics become a failed snapshot; nothing
// propagates to the consumer.
//
// The channel is buffered for the maximum snapshot count, so the producer
// goroutine terminates even if the consumer stops reading.
func ExtractStream(ctx context.Context, p DocumentProcessor, text string, method constants.ExtractionMethod) <-chan Snapshot {
	out := make(chan Snapshot, 4)

	go func() {
		defer close(out)

		status := Status{
			Stage:     constants.StageClassification,
			StartTime: time.Now(),
		}
		emit := func(d Document) {
			// Copy the errors slice so later appends don't alias.
			snap := status
			snap.Errors = append([]string(nil), status.Errors...)
			out <- Snapshot{Status: snap, Data: d}
		}
		fail := func(msg string) {
			status.Stage = constants.StageFailed
			status.Progress = 100
			status.Message = msg
			status.Errors = append(status.Errors, msg)
			emit(nil)
		}

		defer func() {
			if r := recover(); r != nil {
				fail(fmt.Sprintf("extraction panic: %v", r))
			}
		}()

		status.Progress = 10
		status.Message = "classifying document type"
		emit(nil)

		status.Stage = constants.StageExtraction
		status.Progress = 30
		status.Message = "extracting structured data"
		emit(nil)

		data, err := p.Extract(ctx, text, method)
		if err != nil || data == nil {
			msg := "no data extracted"
			if err != nil {
				msg = err.Error()
			}
			fail(msg)
			return
		}

		status.Stage = constants.StageValidation
		status.Progress = 80
		status.Message = "validating extracted data"
		emit(nil)

		_, completeness, _ := p.Validate(data)

		status.Stage = constants.StageCompleted
		status.Progress = 100
		status.Message = fmt.Sprintf("processing complete (%.1f%% complete)", completeness)
		status.ItemsProcessed = 1
		status.ItemsTotal = 1
		emit(data)
	}()

	return out
}
