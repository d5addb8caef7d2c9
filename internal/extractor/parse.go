package extractor

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

type rawProduct struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type rawVariant struct {
	Name            string   `json:"name"`
	QuantityText    *string  `json:"quantity_text"`
	QuantityNumeric *float64 `json:"quantity_numeric"`
	PriceCents      *float64 `json:"price_cents"`
	Currency        *string  `json:"currency"`
}

type rawEnvelope struct {
	Product  *rawProduct  `json:"product"`
	Variants []rawVariant `json:"variants"`
}

// parseAndValidate parses the model's raw text into a typed product,
// returning every schema violation found. A nil product with empty errors
// never happens.
func parseAndValidate(raw string) (*ExtractedProduct, []string) {
	jsonText := extractJSONObject(raw)
	if jsonText == "" {
		return nil, []string{"No JSON object found in AI response"}
	}

	var envelope rawEnvelope
	if err := json.Unmarshal([]byte(jsonText), &envelope); err != nil {
		return nil, []string{fmt.Sprintf("Invalid JSON in AI response: %v", err)}
	}

	errs := validateEnvelope(&envelope)
	if len(errs) > 0 {
		return nil, errs
	}

	product := &ExtractedProduct{
		Name:        strings.TrimSpace(envelope.Product.Name),
		Description: strings.TrimSpace(envelope.Product.Description),
	}
	for _, rv := range envelope.Variants {
		v := ExtractedVariant{
			Name:            strings.TrimSpace(rv.Name),
			QuantityText:    rv.QuantityText,
			QuantityNumeric: rv.QuantityNumeric,
			Currency:        "USD",
		}
		if rv.PriceCents != nil {
			v.PriceCents = int64(*rv.PriceCents)
		}
		if rv.Currency != nil {
			v.Currency = strings.ToUpper(strings.TrimSpace(*rv.Currency))
		}
		product.Variants = append(product.Variants, v)
	}
	return product, nil
}

func validateEnvelope(envelope *rawEnvelope) []string {
	var errs []string

	if envelope.Product == nil {
		errs = append(errs, "Product section is required")
	} else if strings.TrimSpace(envelope.Product.Name) == "" {
		errs = append(errs, "Product name is required")
	}

	if len(envelope.Variants) == 0 {
		errs = append(errs, "At least one variant is required")
		return errs
	}

	for i, v := range envelope.Variants {
		// Errors identify variants by 1-based index
		n := i + 1
		if strings.TrimSpace(v.Name) == "" {
			errs = append(errs, fmt.Sprintf("Variant %d: name is required", n))
		}
		if v.PriceCents != nil && (*v.PriceCents < 0 || *v.PriceCents != math.Trunc(*v.PriceCents)) {
			errs = append(errs, fmt.Sprintf("Variant %d: price_cents must be a non-negative integer", n))
		}
		if v.QuantityNumeric != nil && *v.QuantityNumeric <= 0 {
			errs = append(errs, fmt.Sprintf("Variant %d: quantity_numeric must be a positive number", n))
		}
		if v.Currency != nil && len(strings.TrimSpace(*v.Currency)) != 3 {
			errs = append(errs, fmt.Sprintf("Variant %d: currency must be a 3-character code", n))
		}
	}

	return errs
}

// extractJSONObject strips code-fence markup and returns the outermost
// {...} span of raw, or "" when none exists.
func extractJSONObject(raw string) string {
	s := strings.TrimSpace(raw)

	// Models often wrap JSON in ```json ... ``` fences
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
