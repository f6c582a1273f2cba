// Package server exposes the processing pipeline over the Model Context
// Protocol: one generic tool, one tool per registered processor, and
// read-only resources for statistics, schemas, and keywords.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/docflow/docproc/constants"
	"github.com/docflow/docproc/internal/export"
	"github.com/docflow/docproc/internal/pipeline"
	"github.com/docflow/docproc/internal/processor"
)

const serverName = "docproc"
const serverVersion = "1.0.0"

// Service wraps the registry and pipeline behind an MCP server.
type Service struct {
	registry *processor.Registry
	pipeline *pipeline.Pipeline
	exporter *export.Service
	server   *server.MCPServer
	logger   *slog.Logger
}

func NewService(registry *processor.Registry, pl *pipeline.Pipeline, exporter *export.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		registry: registry,
		pipeline: pl,
		exporter: exporter,
		logger:   logger,
	}
	s.server = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// Serve starts the MCP server on stdio and blocks until the client
// disconnects.
func (s *Service) Serve() error {
	s.logger.Info("server.start",
		"name", serverName,
		"version", serverVersion,
		"processors", len(s.registry.Types()))
	return server.ServeStdio(s.server)
}

func (s *Service) registerTools() {
	processTool := mcp.NewTool("process_document_text",
		mcp.WithDescription("Process any supported document from plain text. "+
			"The document type is detected automatically and structured data is extracted."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Plain text content of the document"),
		),
		mcp.WithString("method",
			mcp.Description("Extraction method: json_schema, prompt_parsing, or hybrid (default)"),
		),
	)
	s.server.AddTool(processTool, s.handleProcessDocument)

	// One dedicated tool per registered processor, named by the processor.
	for _, p := range s.registry.Processors() {
		docType := p.DocumentType()
		tool := mcp.NewTool(p.ToolName(),
			mcp.WithDescription(p.ToolDescription()),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Plain text content of the document"),
			),
			mcp.WithString("method",
				mcp.Description("Extraction method: json_schema, prompt_parsing, or hybrid (default)"),
			),
		)
		s.server.AddTool(tool, s.typedHandler(docType))
	}

	exportTool := mcp.NewTool("export_statistics",
		mcp.WithDescription("Export processing statistics as an XLSX workbook, returned base64 encoded"),
	)
	s.server.AddTool(exportTool, s.handleExportStatistics)

	metricsTool := mcp.NewTool("get_metrics",
		mcp.WithDescription("Get processing statistics, either for one document type or for all processors"),
		mcp.WithString("document_type",
			mcp.Description("Document type to report on; omit for all processors"),
		),
	)
	s.server.AddTool(metricsTool, s.handleGetMetrics)
}

func (s *Service) handleProcessDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	method, err := requestMethod(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pipeline.Process(ctx, text, method)
	if err != nil {
		s.logger.Error("server.process_document.failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("processing failed: %v", err)), nil
	}
	return resultJSON(result)
}

// typedHandler builds the handler for a per-processor tool. The document type
// is fixed, so classification is skipped.
func (s *Service) typedHandler(docType constants.DocumentType) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		method, err := requestMethod(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := s.pipeline.ProcessAs(ctx, docType, text, method)
		if err != nil {
			s.logger.Error("server.process_typed.failed", "document_type", docType, "error", err)
			return mcp.NewToolResultError(fmt.Sprintf("processing failed: %v", err)), nil
		}
		return resultJSON(result)
	}
}

func (s *Service) handleGetMetrics(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docType := request.GetString("document_type", "")
	if docType == "" {
		return resultJSON(s.registry.AllStatistics())
	}

	p, ok := s.registry.Get(constants.DocumentType(docType))
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no processor for document type %q", docType)), nil
	}
	return resultJSON(p.Statistics())
}

func (s *Service) handleExportStatistics(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.exporter.ExportResultsXLSX(nil)
	if err != nil {
		s.logger.Error("server.export_statistics.failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(base64.StdEncoding.EncodeToString(data)), nil
}

func (s *Service) registerResources() {
	allStats := mcp.NewResource("stats://all", "All processor statistics",
		mcp.WithResourceDescription("Aggregated statistics across every registered processor"),
		mcp.WithMIMEType("application/json"),
	)
	s.server.AddResource(allStats, func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(request.Params.URI, s.registry.AllStatistics())
	})

	for _, p := range s.registry.Processors() {
		p := p
		docType := p.DocumentType().String()

		stats := mcp.NewResource(
			fmt.Sprintf("stats://%s", docType),
			fmt.Sprintf("%s statistics", p.DisplayName()),
			mcp.WithResourceDescription(fmt.Sprintf("Processing statistics for %s documents", docType)),
			mcp.WithMIMEType("application/json"),
		)
		s.server.AddResource(stats, func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return jsonResource(request.Params.URI, p.Statistics())
		})

		schema := mcp.NewResource(
			fmt.Sprintf("schema://%s", docType),
			fmt.Sprintf("%s JSON schema", p.DisplayName()),
			mcp.WithResourceDescription(fmt.Sprintf("Extraction schema for %s documents", docType)),
			mcp.WithMIMEType("application/json"),
		)
		s.server.AddResource(schema, func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return jsonResource(request.Params.URI, p.JSONSchema())
		})

		keywords := mcp.NewResource(
			fmt.Sprintf("keywords://%s", docType),
			fmt.Sprintf("%s classification keywords", p.DisplayName()),
			mcp.WithResourceDescription(fmt.Sprintf("Keywords used to classify %s documents", docType)),
			mcp.WithMIMEType("application/json"),
		)
		s.server.AddResource(keywords, func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return jsonResource(request.Params.URI, p.Keywords())
		})
	}
}

func requestMethod(request mcp.CallToolRequest) (constants.ExtractionMethod, error) {
	raw := request.GetString("method", string(constants.MethodHybrid))
	method := constants.ExtractionMethod(raw)
	if !constants.ValidMethod(method) {
		return "", fmt.Errorf("unknown extraction method %q", raw)
	}
	return method, nil
}

func resultJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
