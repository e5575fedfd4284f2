package bootstrap

import (
	"cedra_shipping/internal/catalog"
	"cedra_shipping/internal/config"
	"cedra_shipping/internal/shipping"
)

// Shipping regroupe les services partagés par le serveur et la CLI
type Shipping struct {
	Resolver *shipping.Resolver
	Editor   *shipping.Editor
	Quotes   *shipping.QuoteService
}

func NewShipping(c catalog.Catalog, cfg *config.Config) (*Shipping, error) {
	mode, err := shipping.ParseFeeMode(cfg.FeeMode)
	if err != nil {
		return nil, err
	}
	resolver := shipping.NewResolver(c, cfg.ResolverConcurrency)
	return &Shipping{
		Resolver: resolver,
		Editor:   shipping.NewEditor(c),
		Quotes:   shipping.NewQuoteService(resolver, cfg.StoreCurrency, mode),
	}, nil
}
