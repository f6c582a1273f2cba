// Package invoice implements the document processor for invoices.
package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/docflow/docproc/constants"
	"github.com/docflow/docproc/internal/common"
	"github.com/docflow/docproc/internal/llm"
	"github.com/docflow/docproc/internal/processor"
)

var keywords = func() []string {
	kw := []string{
		"factuur", "invoice", "totaal", "total", "bedrag", "amount",
		"btw", "vat", "klant", "customer", "leverancier", "supplier",
		"artikel", "item", "prijs", "price", "kosten", "costs",
		"betaling", "payment", "factuurnummer", "nummer", "datum",
		"date", "€", "eur", "euro", "subtotaal", "subtotal",
		"vervaldatum", "due",
	}
	sort.Strings(kw)
	return kw
}()

// Processor handles invoice classification, extraction, validation and
// merging. One instance per registry.
type Processor struct {
	client llm.ChatClient
	cfg    common.LLMConfig
	logger *slog.Logger
	stats  processor.Statistics
}

func New(client llm.ChatClient, cfg common.LLMConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{client: client, cfg: cfg, logger: logger}
}

func (p *Processor) DocumentType() constants.DocumentType { return constants.DocTypeInvoice }
func (p *Processor) DisplayName() string                  { return "Invoice" }
func (p *Processor) ToolName() string                     { return "process_invoice" }

func (p *Processor) ToolDescription() string {
	return "Process invoices and extract structured data such as invoice number, " +
		"company information, amounts, VAT, and line items. " +
		"Supports plain text input with automatic type detection."
}

func (p *Processor) Keywords() []string {
	return append([]string(nil), keywords...)
}

func (p *Processor) JSONSchema() map[string]any {
	return BuildJSONSchema()
}

// Classify scores text on keyword presence: 10 points per hit, capped at 100.
func (p *Processor) Classify(_ context.Context, text string) (float64, error) {
	confidence := processor.KeywordConfidence(text, keywords)
	p.logger.Debug("invoice.classify", "confidence", confidence, "text_length", len(text))
	return confidence, nil
}

func (p *Processor) Extract(ctx context.Context, text string, method constants.ExtractionMethod) (processor.Document, error) {
	return processor.RunExtraction(ctx, p, p.extractOnce, text, method, &p.stats, p.logger)
}

// extractOnce runs a single LLM attempt with one concrete method.
func (p *Processor) extractOnce(ctx context.Context, text string, method constants.ExtractionMethod) (processor.Document, error) {
	prompt := JSONSchemaPrompt(text)
	if method == constants.MethodPromptParsing {
		prompt = PromptParsingPrompt(text)
	}

	var data Data
	req := llm.ChatRequest{
		Model:       p.cfg.Model,
		Prompt:      prompt,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	}
	if err := processor.CallAndDecode(ctx, p.client, req, method, p.JSONSchema(), &data, p.logger); err != nil {
		return nil, err
	}
	return &data, nil
}

// Merge combines chunk partials: line items are concatenated and fuzzily
// deduplicated (duplicates fold their quantities and totals together), scalar
// fields take the first non-empty value in input order, and the financial
// totals are recomputed from the merged line items.
func (p *Processor) Merge(partials []processor.Document) (processor.Document, error) {
	if len(partials) == 0 {
		return nil, common.ErrNoPartials
	}

	var invoices []*Data
	for _, part := range partials {
		if inv, ok := part.(*Data); ok && inv != nil {
			invoices = append(invoices, inv)
		}
	}
	if len(invoices) == 0 {
		return nil, fmt.Errorf("%w: no invoice data in partials", common.ErrWrongDocumentType)
	}

	merged := *invoices[0]

	var allItems []LineItem
	for _, inv := range invoices {
		allItems = append(allItems, inv.LineItems...)
	}
	merged.LineItems = dedupLineItems(allItems)

	for _, inv := range invoices[1:] {
		if merged.InvoiceNumber == "" {
			merged.InvoiceNumber = inv.InvoiceNumber
		}
		if merged.InvoiceDate == "" {
			merged.InvoiceDate = inv.InvoiceDate
		}
		if merged.DueDate == "" {
			merged.DueDate = inv.DueDate
		}
		if merged.SupplierAddress == "" {
			merged.SupplierAddress = inv.SupplierAddress
		}
		if merged.SupplierVATNumber == "" {
			merged.SupplierVATNumber = inv.SupplierVATNumber
		}
		if merged.CustomerAddress == "" {
			merged.CustomerAddress = inv.CustomerAddress
		}
		if merged.CustomerVATNumber == "" {
			merged.CustomerVATNumber = inv.CustomerVATNumber
		}
		if merged.PaymentTerms == "" {
			merged.PaymentTerms = inv.PaymentTerms
		}
		if merged.PaymentMethod == "" {
			merged.PaymentMethod = inv.PaymentMethod
		}
		if merged.Notes == "" {
			merged.Notes = inv.Notes
		}
		if merged.Reference == "" {
			merged.Reference = inv.Reference
		}
	}

	if len(merged.LineItems) > 0 {
		var subtotal, vat float64
		for _, item := range merged.LineItems {
			subtotal += item.LineTotal
			vat += item.VATAmount
		}
		merged.Subtotal = subtotal
		merged.VATAmount = vat
		merged.TotalAmount = subtotal + vat
	}

	p.logger.Info("invoice.merge",
		"partials", len(invoices), "line_items", len(merged.LineItems))
	return &merged, nil
}

// dedupLineItems collapses near-identical rows, summing their quantities and
// amounts. Comparison key is description plus unit price, matching how the
// same product shows up across overlapping chunks.
func dedupLineItems(items []LineItem) []LineItem {
	if len(items) == 0 {
		return nil
	}
	var unique []LineItem
	for _, item := range items {
		duplicate := false
		for i := range unique {
			key1 := fmt.Sprintf("%s %v", item.Description, item.UnitPrice)
			key2 := fmt.Sprintf("%s %v", unique[i].Description, unique[i].UnitPrice)
			if processor.IsFuzzyDuplicate(key1, key2) {
				unique[i].Quantity += item.Quantity
				unique[i].LineTotal += item.LineTotal
				unique[i].VATAmount += item.VATAmount
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, item)
		}
	}
	return unique
}

// Validate checks the required invoice fields and scores completeness as the
// fraction of populated fields, counting each line item's fields as well.
func (p *Processor) Validate(data processor.Document) (bool, float64, []string) {
	inv, ok := data.(*Data)
	if !ok || inv == nil {
		return false, 0.0, []string{"data is not invoice data"}
	}

	var issues []string
	if inv.InvoiceID == "" {
		issues = append(issues, "invoice_id is empty")
	}
	if inv.SupplierName == "" {
		issues = append(issues, "supplier_name is empty")
	}
	if inv.CustomerName == "" {
		issues = append(issues, "customer_name is empty")
	}
	if inv.TotalAmount <= 0 {
		issues = append(issues, "total_amount is zero or negative")
	}
	if len(inv.LineItems) == 0 {
		issues = append(issues, "no line items found")
	}

	total, filled := fieldCounts(inv)
	completeness := 0.0
	if total > 0 {
		completeness = float64(filled) / float64(total) * 100
	}
	isValid := len(issues) == 0

	p.logger.Debug("invoice.validate",
		"completeness", completeness, "is_valid", isValid, "issues", len(issues))
	return isValid, completeness, issues
}

// fieldCounts walks every field of the record, treating empty strings and
// zero numbers as unpopulated. line_items counts once for presence plus once
// per field of every item.
func fieldCounts(inv *Data) (total, filled int) {
	countString := func(s string) {
		total++
		if s != "" {
			filled++
		}
	}
	countNumber := func(f float64) {
		total++
		if f != 0 {
			filled++
		}
	}

	countString(inv.InvoiceID)
	countString(inv.InvoiceNumber)
	countString(inv.InvoiceDate)
	countString(inv.DueDate)
	countString(inv.SupplierName)
	countString(inv.SupplierAddress)
	countString(inv.SupplierVATNumber)
	countString(inv.CustomerName)
	countString(inv.CustomerAddress)
	countString(inv.CustomerVATNumber)
	countNumber(inv.Subtotal)
	countNumber(inv.VATAmount)
	countNumber(inv.TotalAmount)
	countString(inv.Currency)
	countString(inv.PaymentTerms)
	countString(inv.PaymentMethod)
	countString(inv.Notes)
	countString(inv.Reference)

	total++
	if len(inv.LineItems) > 0 {
		filled++
		for _, item := range inv.LineItems {
			countString(item.Description)
			countNumber(item.Quantity)
			countString(item.Unit)
			countNumber(item.UnitPrice)
			countNumber(item.LineTotal)
			countNumber(item.VATRate)
			countNumber(item.VATAmount)
		}
	}
	return total, filled
}

// CustomMetrics derives invoice-specific numbers from extracted data.
func (p *Processor) CustomMetrics(data processor.Document) map[string]any {
	inv, ok := data.(*Data)
	if !ok || inv == nil {
		return map[string]any{}
	}

	avgLineItem := 0.0
	if len(inv.LineItems) > 0 {
		avgLineItem = inv.Subtotal / float64(len(inv.LineItems))
	}
	return map[string]any{
		"total_amount":        inv.TotalAmount,
		"subtotal":            inv.Subtotal,
		"vat_amount":          inv.VATAmount,
		"currency":            inv.Currency,
		"line_items_count":    len(inv.LineItems),
		"has_vat":             inv.VATAmount > 0,
		"has_line_items":      len(inv.LineItems) > 0,
		"avg_line_item_value": avgLineItem,
	}
}

func (p *Processor) UpdateStatistics(success bool, elapsed time.Duration, confidence, completeness *float64) {
	p.stats.Update(success, elapsed, confidence, completeness)
}

func (p *Processor) Statistics() processor.Stats {
	return p.stats.Snapshot()
}
