// Package service contains the business logic layer.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"

	"github.com/valuelens/valuelens-api/internal/extractor"
	"github.com/valuelens/valuelens-api/internal/models"
	"github.com/valuelens/valuelens-api/internal/repository"
)

// CatalogService owns product and variant persistence and the value-ranking
// math on top of it.
type CatalogService struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repos *repository.Repositories, logger *slog.Logger) *CatalogService {
	return &CatalogService{repos: repos, logger: logger}
}

// SaveResult holds the outcome of persisting an extraction. A non-empty
// Errors slice means validation rejected the data and nothing was written.
type SaveResult struct {
	Product   *models.Product
	Variants  []*models.Variant
	BestValue *models.Variant
	Errors    []string
}

// Save validates extracted data and atomically replaces the product's
// variant set. Validation failures leave the product untouched; storage
// failures come back as an error.
func (s *CatalogService) Save(ctx context.Context, data *extractor.ExtractedProduct, rawURL string) (*SaveResult, error) {
	if errs := validateExtracted(data); len(errs) > 0 {
		return &SaveResult{Errors: errs}, nil
	}

	product := &models.Product{
		Name:        data.Name,
		Description: data.Description,
		URL:         rawURL,
	}

	variants := make([]*models.Variant, 0, len(data.Variants))
	for _, ev := range data.Variants {
		v := &models.Variant{
			Name:            ev.Name,
			QuantityText:    ev.QuantityText,
			QuantityNumeric: ev.QuantityNumeric,
			PriceCents:      ev.PriceCents,
			Currency:        ev.Currency,
			PricePerUnit:    PricePerUnit(ev.PriceCents, ev.QuantityNumeric),
		}
		variants = append(variants, v)
	}

	if err := s.repos.Product.ReplaceVariants(ctx, product, variants); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	best := BestValueVariant(variants)

	s.logger.Info("product saved",
		"url", rawURL,
		"product_id", product.ID,
		"variant_count", len(variants),
	)

	return &SaveResult{
		Product:   product,
		Variants:  variants,
		BestValue: best,
	}, nil
}

// validateExtracted re-checks the extraction schema before anything touches
// storage. The extractor validates too; this guards the persistence boundary
// against other callers.
func validateExtracted(data *extractor.ExtractedProduct) []string {
	var errs []string

	if data == nil {
		return []string{"Invalid data structure: Product data is required"}
	}
	if strings.TrimSpace(data.Name) == "" {
		errs = append(errs, "Invalid data structure: Product name is required")
	}
	if len(data.Variants) == 0 {
		errs = append(errs, "Invalid data structure: At least one variant is required")
		return errs
	}

	for i, v := range data.Variants {
		n := i + 1
		if strings.TrimSpace(v.Name) == "" {
			errs = append(errs, fmt.Sprintf("Invalid data structure: Variant %d: name is required", n))
		}
		if v.PriceCents < 0 {
			errs = append(errs, fmt.Sprintf("Invalid data structure: Variant %d: price_cents must be a non-negative integer", n))
		}
		if v.QuantityNumeric != nil && *v.QuantityNumeric <= 0 {
			errs = append(errs, fmt.Sprintf("Invalid data structure: Variant %d: quantity_numeric must be a positive number", n))
		}
		if len(v.Currency) != 3 {
			errs = append(errs, fmt.Sprintf("Invalid data structure: Variant %d: currency must be a 3-character code", n))
		}
	}

	return errs
}

// PricePerUnit derives the normalized unit price in minor currency units,
// rounding half-up. Variants without a positive quantity have no unit price.
func PricePerUnit(priceCents int64, quantity *float64) *int64 {
	if quantity == nil || *quantity <= 0 {
		return nil
	}
	ppu := int64(math.Floor(float64(priceCents) / *quantity + 0.5))
	return &ppu
}

// BestValueVariant returns the variant with the lowest price per unit.
// Ties resolve to the earliest variant by position; variants without a unit
// price are never best value. Returns nil when nothing is rankable.
func BestValueVariant(variants []*models.Variant) *models.Variant {
	var best *models.Variant
	for _, v := range variants {
		if v.PricePerUnit == nil {
			continue
		}
		if best == nil || *v.PricePerUnit < *best.PricePerUnit {
			best = v
		}
	}
	return best
}

// VariantView is a variant decorated with read-time ranking metrics.
type VariantView struct {
	Variant *models.Variant
	// ValueRank is the 1-based rank by ascending price per unit, 0 when the
	// variant has no unit price. Ties share a rank.
	ValueRank int
	BestValue bool
	// SavingsCents and SavingsPercentage compare against the worst-value
	// variant. The worst variant itself reports zero.
	SavingsCents      int64
	SavingsPercentage float64
}

// ProductView is the full read model for a product: variants with ranking
// plus the best-value pick.
type ProductView struct {
	Product   *models.Product
	Variants  []VariantView
	BestValue *models.Variant
}

// GetProductView loads a product with its variants and computes ranking and
// savings metrics. Returns nil when the product does not exist.
func (s *CatalogService) GetProductView(ctx context.Context, productID string) (*ProductView, error) {
	product, err := s.repos.Product.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}

	variants, err := s.repos.Product.GetVariants(ctx, productID)
	if err != nil {
		return nil, err
	}

	return &ProductView{
		Product:   product,
		Variants:  BuildVariantViews(variants),
		BestValue: BestValueVariant(variants),
	}, nil
}

// BuildVariantViews computes value rank and savings-vs-worst for each
// variant. Metrics are derived at read time, never stored.
func BuildVariantViews(variants []*models.Variant) []VariantView {
	var worst *int64
	var bestPPU *int64
	for _, v := range variants {
		if v.PricePerUnit == nil {
			continue
		}
		if worst == nil || *v.PricePerUnit > *worst {
			worst = v.PricePerUnit
		}
		if bestPPU == nil || *v.PricePerUnit < *bestPPU {
			bestPPU = v.PricePerUnit
		}
	}

	views := make([]VariantView, 0, len(variants))
	for _, v := range variants {
		view := VariantView{Variant: v}
		if v.PricePerUnit != nil {
			view.ValueRank = valueRank(v, variants)
			view.BestValue = *v.PricePerUnit == *bestPPU
			if worst != nil && *worst > 0 {
				view.SavingsCents = *worst - *v.PricePerUnit
				pct := float64(view.SavingsCents) / float64(*worst) * 100
				view.SavingsPercentage = math.Round(pct*10) / 10
			}
		}
		views = append(views, view)
	}
	return views
}

// valueRank is one plus the count of variants with a strictly lower price
// per unit, so ties share a rank.
func valueRank(v *models.Variant, variants []*models.Variant) int {
	rank := 1
	for _, other := range variants {
		if other.PricePerUnit == nil {
			continue
		}
		if *other.PricePerUnit < *v.PricePerUnit {
			rank++
		}
	}
	return rank
}

// MarkProcessing locates or creates the product for url and marks it
// processing.
func (s *CatalogService) MarkProcessing(ctx context.Context, rawURL string) error {
	_, err := s.repos.Product.UpsertStatus(ctx, rawURL, defaultProductName(rawURL), models.ProductStatusProcessing)
	return err
}

// MarkFailed locates or creates the product for url and marks it failed.
// Used when a pipeline stage dies before there is anything to save.
func (s *CatalogService) MarkFailed(ctx context.Context, rawURL, message string) error {
	s.logger.Warn("marking product failed", "url", rawURL, "reason", message)
	_, err := s.repos.Product.UpsertStatus(ctx, rawURL, defaultProductName(rawURL), models.ProductStatusFailed)
	return err
}

// defaultProductName derives a placeholder name from the URL's host,
// stripping a leading www.
func defaultProductName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "Unknown Product"
	}
	return strings.TrimPrefix(u.Host, "www.")
}
