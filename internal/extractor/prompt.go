package extractor

import (
	"fmt"
	"strings"

	"github.com/valuelens/valuelens-api/internal/preprocessor"
)

// maxHTMLLength bounds the page content embedded in the prompt so large
// pages stay within model input limits.
const maxHTMLLength = 8000

const systemPrompt = `You are a product data extraction assistant. You will be given the HTML of a product page and its URL. Extract the product and every purchasable variant (size, quantity, pack option) you can find.

Respond with ONLY a JSON object of this exact shape, no prose:
{
  "product": {
    "name": "product name",
    "description": "short product description"
  },
  "variants": [
    {
      "name": "variant display name",
      "quantity_text": "quantity as shown on the page, e.g. \"12 oz\"",
      "quantity_numeric": 12.0,
      "price_cents": 129,
      "currency": "USD"
    }
  ]
}

Rules:
- price_cents is the price in minor currency units (cents) as a non-negative integer.
- quantity_numeric is the numeric quantity as a positive number, or null when the page shows no quantity.
- quantity_text is the human-readable quantity string, or null.
- currency is a 3-letter code.
- Include every variant listed on the page. Do not invent variants.`

// buildPrompt assembles the full completion prompt. The page HTML is
// condensed first, then truncated to maxHTMLLength characters.
func buildPrompt(html, url string) string {
	html = preprocessor.Condense(html)
	if len(html) > maxHTMLLength {
		html = html[:maxHTMLLength]
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "URL: %s\n\n", url)
	fmt.Fprintf(&b, "HTML:\n%s", html)
	return b.String()
}
