package scanning

import "strings"

// receiptPrompt asks the vision model for every field the receipt parser
// recognizes, one "Label: value" per line.
const receiptPrompt = `Extract the following details from the receipt: ` +
	`Restaurant Name, Address, Order Date and Time, Payment Method, ` +
	`Items Ordered (including quantities and prices), Subtotal, Tax, and Total Amount Paid.

Write one "Label: value" pair per line using exactly these labels:
Restaurant Name:, Address:, Order Date and Time:, Payment Method:, Subtotal:, Tax:, Total Amount Paid:

Write the order date and time as MM/DD/YYYY, H:MM AM/PM.
List each ordered item on its own line as "* <quantity> <item name> - $<price>".`

// cleanResponse strips surrounding whitespace and markdown code fences that
// models sometimes wrap plain text in.
func cleanResponse(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	// Drop the opening fence line, which may carry a language tag.
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
