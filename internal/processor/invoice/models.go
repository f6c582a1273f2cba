package invoice

import "github.com/docflow/docproc/constants"

// LineItem is one itemized row on an invoice.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
	VATRate     float64 `json:"vat_rate"`
	VATAmount   float64 `json:"vat_amount"`
}

// Data is the structured record extracted from an invoice. Fields serialize
// without omitempty so completeness scoring sees every field, populated or not.
type Data struct {
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	InvoiceDate   string `json:"invoice_date"`
	DueDate       string `json:"due_date"`

	SupplierName      string `json:"supplier_name"`
	SupplierAddress   string `json:"supplier_address"`
	SupplierVATNumber string `json:"supplier_vat_number"`
	CustomerName      string `json:"customer_name"`
	CustomerAddress   string `json:"customer_address"`
	CustomerVATNumber string `json:"customer_vat_number"`

	Subtotal    float64 `json:"subtotal"`
	VATAmount   float64 `json:"vat_amount"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`

	LineItems []LineItem `json:"line_items"`

	PaymentTerms  string `json:"payment_terms"`
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes"`
	Reference     string `json:"reference"`
}

func (*Data) DocumentType() constants.DocumentType {
	return constants.DocTypeInvoice
}

// BuildJSONSchema returns the invoice schema (draft 2020-12 subset) as a
// generic map. It is passed to the LLM as a structured-output constraint and
// also used to validate replies locally.
func BuildJSONSchema() map[string]any {
	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"quantity":    map[string]any{"type": "number"},
			"unit":        map[string]any{"type": "string"},
			"unit_price":  map[string]any{"type": "number"},
			"line_total":  map[string]any{"type": "number"},
			"vat_rate":    map[string]any{"type": "number"},
			"vat_amount":  map[string]any{"type": "number"},
		},
		"required": []string{"description", "quantity", "unit_price", "line_total"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"invoice_id":          map[string]any{"type": "string", "minLength": 1},
			"invoice_number":      map[string]any{"type": "string"},
			"invoice_date":        map[string]any{"type": "string"},
			"due_date":            map[string]any{"type": "string"},
			"supplier_name":       map[string]any{"type": "string", "minLength": 1},
			"supplier_address":    map[string]any{"type": "string"},
			"supplier_vat_number": map[string]any{"type": "string"},
			"customer_name":       map[string]any{"type": "string", "minLength": 1},
			"customer_address":    map[string]any{"type": "string"},
			"customer_vat_number": map[string]any{"type": "string"},
			"subtotal":            map[string]any{"type": "number"},
			"vat_amount":          map[string]any{"type": "number"},
			"total_amount":        map[string]any{"type": "number"},
			"currency":            map[string]any{"type": "string"},
			"line_items":          map[string]any{"type": "array", "items": lineItem},
			"payment_terms":       map[string]any{"type": "string"},
			"payment_method":      map[string]any{"type": "string"},
			"notes":               map[string]any{"type": "string"},
			"reference":           map[string]any{"type": "string"},
		},
		"required": []string{"invoice_id", "supplier_name", "customer_name", "total_amount", "line_items"},
	}
}
