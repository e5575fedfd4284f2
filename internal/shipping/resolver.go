package shipping

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"cedra_shipping/internal/catalog"
	"cedra_shipping/internal/models"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 250
)

// Resolver lit les attributs de livraison via le catalogue. C'est le seul
// point de lecture, utilisé à la fois par le devis et par l'administration.
type Resolver struct {
	catalog     catalog.Reader
	concurrency int
	tracer      trace.Tracer
}

func NewResolver(c catalog.Reader, concurrency int) *Resolver {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Resolver{
		catalog:     c,
		concurrency: concurrency,
		tracer:      otel.Tracer("cedra_shipping/shipping"),
	}
}

// CanonicalID renvoie la forme de l'identifiant utilisée par le catalogue
func (r *Resolver) CanonicalID(productID string) string {
	return r.catalog.NormalizeID(productID)
}

func (r *Resolver) Resolve(ctx context.Context, productID string) (models.ShippingAttributes, error) {
	if strings.TrimSpace(productID) == "" {
		return models.ShippingAttributes{}, malformed("product_id vide")
	}
	productID = r.CanonicalID(productID)
	ctx, span := r.tracer.Start(ctx, "shipping.Resolve", trace.WithAttributes(attribute.String("product.id", productID)))
	defer span.End()

	fields, err := r.catalog.ProductMetafields(ctx, productID, Namespace)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.ShippingAttributes{}, &CatalogUnavailableError{ProductID: productID, Err: err}
	}
	attrs := DecodeAttributes(fields)
	span.SetAttributes(
		attribute.Bool("shipping.requires_paid", attrs.RequiresPaidShipping),
		attribute.String("shipping.fee", attrs.ShippingFee.String()),
	)
	return attrs, nil
}

// ResolveMany résout chaque identifiant distinct en parallèle. La première
// erreur annule les appels restants ; aucun résultat partiel n'est renvoyé.
// La map est indexée par identifiant canonique.
func (r *Resolver) ResolveMany(ctx context.Context, productIDs []string) (map[string]models.ShippingAttributes, error) {
	distinct := make([]string, 0, len(productIDs))
	seen := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		id = r.CanonicalID(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	results := make([]models.ShippingAttributes, len(distinct))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, id := range distinct {
		g.Go(func() error {
			attrs, err := r.Resolve(gctx, id)
			if err != nil {
				return err
			}
			results[i] = attrs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]models.ShippingAttributes, len(distinct))
	for i, id := range distinct {
		out[id] = results[i]
	}
	return out, nil
}

// ListSettings renvoie une page de produits avec leurs attributs décodés
func (r *Resolver) ListSettings(ctx context.Context, first int, after string) (*models.ProductShippingPage, error) {
	first = ClampPageSize(first)
	page, err := r.catalog.ListProducts(ctx, Namespace, first, after)
	if errors.Is(err, catalog.ErrInvalidCursor) {
		return nil, malformed("curseur after invalide: %q", after)
	}
	if err != nil {
		return nil, &CatalogUnavailableError{ProductID: "*", Err: err}
	}
	out := &models.ProductShippingPage{
		Products: make([]models.ProductShippingSettings, 0, len(page.Products)),
		PageInfo: models.PageInfo{HasNextPage: page.HasNextPage, EndCursor: page.EndCursor},
	}
	for _, p := range page.Products {
		out.Products = append(out.Products, settingsFor(p.ID, p.Title, DecodeAttributes(p.Metafields)))
	}
	return out, nil
}

// SettingsFor résout les attributs d'une liste de produits déjà identifiés
// (résultats de recherche). Les produits disparus du catalogue sont ignorés.
func (r *Resolver) SettingsFor(ctx context.Context, products []models.ProductSummary) ([]models.ProductShippingSettings, error) {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	out := make([]models.ProductShippingSettings, 0, len(products))
	results := make([]*models.ShippingAttributes, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			attrs, err := r.Resolve(gctx, id)
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = &attrs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, p := range products {
		if results[i] != nil {
			out = append(out, settingsFor(p.ID, p.Title, *results[i]))
		}
	}
	return out, nil
}

func settingsFor(id, title string, attrs models.ShippingAttributes) models.ProductShippingSettings {
	return models.ProductShippingSettings{
		ID:                id,
		Title:             title,
		HasShippingCharge: attrs.RequiresPaidShipping,
		ShippingFee:       attrs.ShippingFee,
	}
}

func ClampPageSize(first int) int {
	if first <= 0 {
		return DefaultPageSize
	}
	if first > MaxPageSize {
		return MaxPageSize
	}
	return first
}
