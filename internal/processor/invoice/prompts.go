package invoice

import "fmt"

// JSONSchemaPrompt targets structured-output mode: the schema constrains the
// reply, the prompt pushes the model to fill the line_items table completely.
func JSONSchemaPrompt(text string) string {
	return fmt.Sprintf(`Extract ALL structured information from the following invoice text. Be extremely thorough and complete.

CRITICAL: The line_items array is MANDATORY - extract ALL products/services from the invoice table/list.
Look for any table, list, or itemized section showing products, services, descriptions, quantities, and prices.

REQUIRED fields to fill:
1. invoice_id AND invoice_number (use same value if only one number found)
2. invoice_date and due_date (extract all dates)
3. supplier_name, supplier_address, supplier_vat_number
4. customer_name, customer_address, customer_vat_number
5. subtotal, vat_amount, total_amount (extract all monetary amounts as numbers)
6. line_items array - MUST contain ALL itemized products/services with:
   - description (product/service name)
   - quantity (as number, default 1 if not specified)
   - unit_price (price per unit as number)
   - line_total (total for this line as number)
   - vat_rate (VAT percentage if available)
   - vat_amount (VAT amount for this line if available)
7. payment_terms, payment_method, notes, reference (any additional info)

DO NOT leave line_items empty if there are any products/services listed in the invoice!

Text:
%s
`, text)
}

// PromptParsingPrompt targets free-form mode; the reply is parsed with a
// repair pass, so the prompt insists on bare JSON.
func PromptParsingPrompt(text string) string {
	return fmt.Sprintf(`Extract structured information from the following invoice text.

IMPORTANT: Return ONLY valid JSON without any explanation text, comments, or markdown formatting.
Use EXACTLY these field names in your JSON output:

Basic information:
- invoice_id (unique identification, use invoice number or generate unique ID)
- invoice_number, invoice_date, due_date

Company information:
- supplier_name, supplier_address, supplier_vat_number
- customer_name, customer_address, customer_vat_number

Financial information:
- subtotal (excluding VAT), vat_amount, total_amount (including VAT)
- currency (default "EUR")

Invoice lines (line_items), each with:
- description, quantity (number, use 1 if not specified), unit_price,
  unit (pieces, hours, etc.), line_total, vat_rate, vat_amount

Payment information:
- payment_terms, payment_method

Extra information:
- notes, reference

CRITICAL: All quantity fields must be numbers (not strings). Use 1 for single items, 0 for discounts/promotions.
Ensure all required fields are present. If a field cannot be found, use empty string or empty list.

Text:
%s

Return ONLY the JSON object, no other text.
`, text)
}
