package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/docflow/docproc/internal/pipeline"
	"github.com/docflow/docproc/internal/processor"
)

// Service produces XLSX bytes from pipeline results and registry statistics.
type Service struct {
	registry *processor.Registry
	logger   *slog.Logger
}

func NewService(registry *processor.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{registry: registry, logger: logger}
}

// ExportResultsXLSX returns a workbook with one Results sheet listing the
// given runs and one Statistics sheet with the per-processor aggregates.
func (s *Service) ExportResultsXLSX(results []*pipeline.Result) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Results"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	// Drop the default sheet that excelize creates.
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Request ID",
		"Document Type",
		"Confidence",
		"Valid",
		"Completeness",
		"Issues",
		"Chunks",
		"Processing Time (ms)",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.RequestID)
		write(2, r.DocumentType.String())
		write(3, r.Confidence)
		write(4, r.IsValid)
		write(5, r.Completeness)
		write(6, truncate(fmt.Sprintf("%v", r.Issues), 140))
		write(7, r.Chunks)
		write(8, r.ProcessingTime.Milliseconds())
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 38) // request id
	_ = f.SetColWidth(sheet, "B", "B", 16) // type
	_ = f.SetColWidth(sheet, "C", "E", 14) // scores
	_ = f.SetColWidth(sheet, "F", "F", 48) // issues
	_ = f.SetColWidth(sheet, "G", "H", 18)

	if err := s.writeStatisticsSheet(f); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeStatisticsSheet(f *excelize.File) error {
	const sheet = "Statistics"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{
		"Processor",
		"Display Name",
		"Processed",
		"Successful",
		"Failed",
		"Success Rate",
		"Avg Confidence",
		"Avg Completeness",
		"Avg Processing Time (s)",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	stats := s.registry.AllStatistics()
	row := 2
	for _, docType := range stats.ProcessorTypes {
		ps := stats.Processors[docType]
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, ps.ProcessorType)
		write(2, ps.DisplayName)
		write(3, ps.TotalProcessed)
		write(4, ps.TotalSuccessful)
		write(5, ps.TotalFailed)
		write(6, ps.SuccessRate)
		write(7, ps.AvgConfidence)
		write(8, ps.AvgCompleteness)
		write(9, ps.AvgProcessingTime)
		row++
	}

	// Global totals on the last row.
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
	write(1, "global")
	write(3, stats.Global.TotalDocumentsProcessed)
	write(4, stats.Global.TotalSuccessful)
	write(5, stats.Global.TotalFailed)
	write(6, stats.Global.GlobalSuccessRate)

	_ = f.SetColWidth(sheet, "A", "B", 18)
	_ = f.SetColWidth(sheet, "C", "I", 16)
	return nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
