package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/valuelens/valuelens-api/internal/service"
)

// ProductHandler handles product read endpoints.
type ProductHandler struct {
	catalogSvc *service.CatalogService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(catalogSvc *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalogSvc: catalogSvc}
}

// VariantPayload is one variant with its read-time ranking metrics.
type VariantPayload struct {
	ID              string   `json:"id"`
	Name            string   `json:"name" example:"12 oz Can"`
	QuantityText    *string  `json:"quantity_text,omitempty" example:"12 oz"`
	QuantityNumeric *float64 `json:"quantity_numeric,omitempty" example:"12.0"`
	PriceCents      int64    `json:"price_cents" example:"129"`
	Currency        string   `json:"currency" example:"USD"`
	PricePerUnit    *int64   `json:"price_per_unit,omitempty" example:"11" doc:"Price per unit in minor currency units, absent when the variant has no quantity"`
	ValueRank       int      `json:"value_rank,omitempty" doc:"1-based rank by ascending price per unit, ties share a rank"`
	BestValue       bool     `json:"best_value"`
	SavingsCents    int64    `json:"savings_cents" doc:"Savings per unit versus the worst-value variant"`
	SavingsPercent  float64  `json:"savings_percentage" doc:"Savings versus the worst-value variant, one decimal"`
}

// ProductPayload is the full product read model with ranked variants.
type ProductPayload struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Description        string           `json:"description,omitempty"`
	URL                string           `json:"url"`
	Status             string           `json:"status"`
	Variants           []VariantPayload `json:"variants"`
	BestValueVariantID string           `json:"best_value_variant_id,omitempty"`
}

// productPayload maps a service view onto the wire shape.
func productPayload(view *service.ProductView) *ProductPayload {
	payload := &ProductPayload{
		ID:          view.Product.ID,
		Name:        view.Product.Name,
		Description: view.Product.Description,
		URL:         view.Product.URL,
		Status:      string(view.Product.Status),
		Variants:    make([]VariantPayload, 0, len(view.Variants)),
	}
	if view.BestValue != nil {
		payload.BestValueVariantID = view.BestValue.ID
	}
	for _, v := range view.Variants {
		payload.Variants = append(payload.Variants, VariantPayload{
			ID:              v.Variant.ID,
			Name:            v.Variant.Name,
			QuantityText:    v.Variant.QuantityText,
			QuantityNumeric: v.Variant.QuantityNumeric,
			PriceCents:      v.Variant.PriceCents,
			Currency:        v.Variant.Currency,
			PricePerUnit:    v.Variant.PricePerUnit,
			ValueRank:       v.ValueRank,
			BestValue:       v.BestValue,
			SavingsCents:    v.SavingsCents,
			SavingsPercent:  v.SavingsPercentage,
		})
	}
	return payload
}

// GetProductInput represents a product read request.
type GetProductInput struct {
	ID string `path:"id" doc:"Product ID"`
}

// GetProductOutput represents a product read response.
type GetProductOutput struct {
	Body ProductPayload
}

// GetProduct returns a product with its ranked variants.
func (h *ProductHandler) GetProduct(ctx context.Context, input *GetProductInput) (*GetProductOutput, error) {
	view, err := h.catalogSvc.GetProductView(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load product: " + err.Error())
	}
	if view == nil {
		return nil, huma.Error404NotFound("product not found")
	}
	return &GetProductOutput{Body: *productPayload(view)}, nil
}
