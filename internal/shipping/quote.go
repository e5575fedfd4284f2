package shipping

import (
	"context"
	"fmt"
	"strings"

	"cedra_shipping/internal/models"
)

// FeeMode décide si un produit présent sur plusieurs lignes compte une ou plusieurs fois
type FeeMode string

const (
	FeePerProduct  FeeMode = "per_product"
	FeePerLineItem FeeMode = "per_line_item"
)

func ParseFeeMode(s string) (FeeMode, error) {
	switch FeeMode(s) {
	case FeePerProduct, FeePerLineItem:
		return FeeMode(s), nil
	}
	return "", fmt.Errorf("mode de frais inconnu: %q", s)
}

type QuoteService struct {
	resolver *Resolver
	currency string
	mode     FeeMode
}

func NewQuoteService(resolver *Resolver, currency string, mode FeeMode) *QuoteService {
	if mode == "" {
		mode = FeePerProduct
	}
	return &QuoteService{resolver: resolver, currency: currency, mode: mode}
}

func (s *QuoteService) Currency() string { return s.currency }
func (s *QuoteService) Mode() FeeMode    { return s.mode }

// Quote résout chaque produit distinct, attend toutes les réponses, puis agrège.
// Une seule résolution en échec fait échouer tout le devis.
func (s *QuoteService) Quote(ctx context.Context, items []models.CartItem) (models.ShippingRateQuote, error) {
	ids := make([]string, 0, len(items))
	for i, it := range items {
		id := strings.TrimSpace(it.ProductID.String())
		if id == "" {
			return models.ShippingRateQuote{}, malformed("items[%d].product_id vide", i)
		}
		// 123 et gid://shopify/Product/123 désignent le même produit
		ids = append(ids, s.resolver.CanonicalID(id))
	}

	resolved, err := s.resolver.ResolveMany(ctx, ids)
	if err != nil {
		return models.ShippingRateQuote{}, err
	}

	sequence := make([]models.ShippingAttributes, 0, len(ids))
	counted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if s.mode == FeePerProduct {
			if _, ok := counted[id]; ok {
				continue
			}
			counted[id] = struct{}{}
		}
		sequence = append(sequence, resolved[id])
	}
	return Aggregate(s.currency, sequence), nil
}
