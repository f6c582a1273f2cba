package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docflow/docproc/constants"
	"github.com/docflow/docproc/internal/common"
	"github.com/docflow/docproc/internal/llm"
	"github.com/docflow/docproc/internal/processor"
)

// fakeChat returns a canned reply per call.
type fakeChat struct {
	replies []string
	errs    []error
	calls   int
	lastReq llm.ChatRequest
}

func (f *fakeChat) Chat(_ context.Context, req llm.ChatRequest) (string, error) {
	f.lastReq = req
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", errors.New("no scripted reply")
}

func testConfig() common.LLMConfig {
	return common.LLMConfig{Model: "llama3:8b", Temperature: 0.1, MaxTokens: 2048}
}

func fullInvoiceJSON(t *testing.T) string {
	t.Helper()
	data := Data{
		InvoiceID:         "F-2024-001",
		InvoiceNumber:     "F-2024-001",
		InvoiceDate:       "2024-01-15",
		DueDate:           "2024-02-14",
		SupplierName:      "Acme BV",
		SupplierAddress:   "Hoofdstraat 1, Amsterdam",
		SupplierVATNumber: "NL123456789B01",
		CustomerName:      "Foo NV",
		CustomerAddress:   "Dorpsweg 2, Utrecht",
		CustomerVATNumber: "NL987654321B01",
		Subtotal:          100,
		VATAmount:         21,
		TotalAmount:       121,
		Currency:          "EUR",
		LineItems: []LineItem{
			{Description: "Consulting", Quantity: 2, Unit: "hours", UnitPrice: 50, LineTotal: 100, VATRate: 21, VATAmount: 21},
		},
		PaymentTerms:  "30 days",
		PaymentMethod: "bank transfer",
		Notes:         "thanks",
		Reference:     "PO-1",
	}
	b, err := json.Marshal(&data)
	require.NoError(t, err)
	return string(b)
}

func TestMetadata(t *testing.T) {
	p := New(nil, testConfig(), nil)
	assert.Equal(t, constants.DocTypeInvoice, p.DocumentType())
	assert.Equal(t, "process_invoice", p.ToolName())
	assert.NotEmpty(t, p.ToolDescription())
	assert.NotEmpty(t, p.DisplayName())
}

func TestKeywordsSortedAndCopied(t *testing.T) {
	p := New(nil, testConfig(), nil)
	kw := p.Keywords()
	assert.True(t, sort.StringsAreSorted(kw))

	kw[0] = "mutated"
	assert.NotEqual(t, "mutated", p.Keywords()[0])
}

func TestClassifyInvoiceText(t *testing.T) {
	p := New(nil, testConfig(), nil)
	text := `FACTUUR
Factuurnummer: 2024-001
Datum: 2024-01-15
Leverancier: Acme BV
Klant: Foo NV
Subtotaal: 100.00
BTW 21%: 21.00
Totaal: 121.00 EUR`

	confidence, err := p.Classify(context.Background(), text)
	require.NoError(t, err)
	assert.Greater(t, confidence, 50.0)
	assert.LessOrEqual(t, confidence, 100.0)
}

func TestClassifyUnrelatedText(t *testing.T) {
	p := New(nil, testConfig(), nil)
	confidence, err := p.Classify(context.Background(), "the quick brown fox jumps over the lazy dog")
	require.NoError(t, err)
	assert.Equal(t, 0.0, confidence)
}

func TestExtractJSONSchemaMethod(t *testing.T) {
	chat := &fakeChat{replies: []string{fullInvoiceJSON(t)}}
	p := New(chat, testConfig(), nil)

	doc, err := p.Extract(context.Background(), "factuur tekst", constants.MethodJSONSchema)
	require.NoError(t, err)

	inv, ok := doc.(*Data)
	require.True(t, ok)
	assert.Equal(t, "F-2024-001", inv.InvoiceID)
	assert.Equal(t, 121.0, inv.TotalAmount)
	require.Len(t, inv.LineItems, 1)

	// Structured output mode passes the schema as the format constraint.
	assert.NotNil(t, chat.lastReq.Format)

	snap := p.Statistics()
	assert.Equal(t, 1, snap.TotalProcessed)
	assert.Equal(t, 1, snap.TotalSuccessful)
}

func TestExtractPromptParsingRepairsFencedReply(t *testing.T) {
	chat := &fakeChat{replies: []string{"Here is the JSON:\n```json\n" + fullInvoiceJSON(t) + "\n```"}}
	p := New(chat, testConfig(), nil)

	doc, err := p.Extract(context.Background(), "factuur tekst", constants.MethodPromptParsing)
	require.NoError(t, err)
	inv := doc.(*Data)
	assert.Equal(t, "Acme BV", inv.SupplierName)

	// Free-form mode uses stop sequences, not a format constraint.
	assert.Nil(t, chat.lastReq.Format)
	assert.NotEmpty(t, chat.lastReq.Stop)
}

func TestExtractHybridFallsBackAfterIncompleteSchema(t *testing.T) {
	sparse := `{"invoice_id": "F-1", "supplier_name": "Acme BV", "customer_name": "Foo NV", "total_amount": 121, "line_items": [{"description": "x", "quantity": 1, "unit_price": 121, "line_total": 121}]}`
	chat := &fakeChat{replies: []string{sparse, fullInvoiceJSON(t)}}
	p := New(chat, testConfig(), nil)

	doc, err := p.Extract(context.Background(), "factuur tekst", constants.MethodHybrid)
	require.NoError(t, err)
	assert.Equal(t, 2, chat.calls, "hybrid must retry with prompt_parsing")

	inv := doc.(*Data)
	assert.Equal(t, "F-2024-001", inv.InvoiceID, "expected the richer prompt_parsing result")
}

func TestExtractUnknownMethod(t *testing.T) {
	p := New(&fakeChat{}, testConfig(), nil)
	_, err := p.Extract(context.Background(), "tekst", constants.ExtractionMethod("regex"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnknownMethod))
}

func TestValidateCompleteInvoice(t *testing.T) {
	var data Data
	require.NoError(t, json.Unmarshal([]byte(fullInvoiceJSON(t)), &data))

	p := New(nil, testConfig(), nil)
	isValid, completeness, issues := p.Validate(&data)
	assert.True(t, isValid)
	assert.Empty(t, issues)
	assert.Equal(t, 100.0, completeness)
}

func TestValidateMissingRequiredFields(t *testing.T) {
	p := New(nil, testConfig(), nil)
	isValid, completeness, issues := p.Validate(&Data{})

	assert.False(t, isValid)
	assert.Less(t, completeness, 10.0)
	assert.Contains(t, issues, "invoice_id is empty")
	assert.Contains(t, issues, "supplier_name is empty")
	assert.Contains(t, issues, "customer_name is empty")
	assert.Contains(t, issues, "total_amount is zero or negative")
	assert.Contains(t, issues, "no line items found")
}

func TestValidateWrongType(t *testing.T) {
	p := New(nil, testConfig(), nil)
	isValid, completeness, issues := p.Validate(nil)
	assert.False(t, isValid)
	assert.Equal(t, 0.0, completeness)
	assert.NotEmpty(t, issues)
}

func TestMergeEmptyPartials(t *testing.T) {
	p := New(nil, testConfig(), nil)
	_, err := p.Merge(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNoPartials))
}

func TestMergeSinglePartialIsIdentity(t *testing.T) {
	var data Data
	require.NoError(t, json.Unmarshal([]byte(fullInvoiceJSON(t)), &data))

	p := New(nil, testConfig(), nil)
	merged, err := p.Merge([]processor.Document{&data})
	require.NoError(t, err)

	inv := merged.(*Data)
	assert.Equal(t, data.InvoiceID, inv.InvoiceID)
	assert.Equal(t, data.TotalAmount, inv.TotalAmount)
	require.Len(t, inv.LineItems, 1)
}

func TestMergeFirstNonEmptyScalarWins(t *testing.T) {
	first := &Data{InvoiceID: "F-1", InvoiceDate: "", PaymentTerms: ""}
	second := &Data{InvoiceID: "F-2", InvoiceDate: "2024-01-15", PaymentTerms: "30 days"}

	p := New(nil, testConfig(), nil)
	merged, err := p.Merge([]processor.Document{first, second})
	require.NoError(t, err)

	inv := merged.(*Data)
	assert.Equal(t, "F-1", inv.InvoiceID, "first partial's value wins")
	assert.Equal(t, "2024-01-15", inv.InvoiceDate, "empty value filled from later partial")
	assert.Equal(t, "30 days", inv.PaymentTerms)
}

func TestMergeDeduplicatesLineItemsAndRecomputesTotals(t *testing.T) {
	first := &Data{
		InvoiceID: "F-1",
		LineItems: []LineItem{
			{Description: "Hosting fee", Quantity: 1, UnitPrice: 10, LineTotal: 10, VATAmount: 2.1},
			{Description: "Consulting", Quantity: 2, UnitPrice: 50, LineTotal: 100, VATAmount: 21},
		},
	}
	second := &Data{
		InvoiceID: "F-1",
		LineItems: []LineItem{
			// Same row seen again in the overlapping chunk.
			{Description: "hosting fee", Quantity: 1, UnitPrice: 10, LineTotal: 10, VATAmount: 2.1},
			{Description: "Domain registration", Quantity: 1, UnitPrice: 15, LineTotal: 15, VATAmount: 3.15},
		},
	}

	p := New(nil, testConfig(), nil)
	merged, err := p.Merge([]processor.Document{first, second})
	require.NoError(t, err)

	inv := merged.(*Data)
	require.Len(t, inv.LineItems, 3)

	// The duplicate folded its quantity and totals into the first row.
	assert.Equal(t, 2.0, inv.LineItems[0].Quantity)
	assert.Equal(t, 20.0, inv.LineItems[0].LineTotal)

	assert.InDelta(t, 135.0, inv.Subtotal, 1e-9)
	assert.InDelta(t, 28.35, inv.VATAmount, 1e-9)
	assert.InDelta(t, 163.35, inv.TotalAmount, 1e-9)
}

func TestMergeIdempotent(t *testing.T) {
	partial := &Data{
		InvoiceID: "F-1",
		LineItems: []LineItem{{Description: "Consulting", Quantity: 1, UnitPrice: 50, LineTotal: 50}},
	}
	p := New(nil, testConfig(), nil)

	once, err := p.Merge([]processor.Document{partial})
	require.NoError(t, err)
	twice, err := p.Merge([]processor.Document{once})
	require.NoError(t, err)

	a := once.(*Data)
	b := twice.(*Data)
	assert.Equal(t, a.Subtotal, b.Subtotal)
	assert.Equal(t, a.TotalAmount, b.TotalAmount)
	require.Len(t, b.LineItems, 1)
	assert.Equal(t, 1.0, b.LineItems[0].Quantity)

	// Inputs are never mutated.
	assert.Equal(t, 1.0, partial.LineItems[0].Quantity)
}

func TestCustomMetrics(t *testing.T) {
	var data Data
	require.NoError(t, json.Unmarshal([]byte(fullInvoiceJSON(t)), &data))

	p := New(nil, testConfig(), nil)
	m := p.CustomMetrics(&data)
	assert.Equal(t, 121.0, m["total_amount"])
	assert.Equal(t, "EUR", m["currency"])
	assert.Equal(t, 1, m["line_items_count"])
	assert.Equal(t, true, m["has_vat"])
	assert.Equal(t, true, m["has_line_items"])
	assert.Equal(t, 100.0, m["avg_line_item_value"])
}

func TestCustomMetricsWrongType(t *testing.T) {
	p := New(nil, testConfig(), nil)
	assert.Empty(t, p.CustomMetrics(nil))
}
