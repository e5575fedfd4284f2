package shipping

import (
	"context"
	"strings"

	"cedra_shipping/internal/catalog"
	"cedra_shipping/internal/models"
)

// Editor écrit les attributs de livraison d'un produit dans le catalogue
type Editor struct {
	catalog catalog.Writer
}

func NewEditor(c catalog.Writer) *Editor {
	return &Editor{catalog: c}
}

// Write soumet le drapeau et les frais en une seule requête atomique.
// Le montant est conservé même quand le drapeau est à false.
func (e *Editor) Write(ctx context.Context, productID string, attrs models.ShippingAttributes) error {
	if strings.TrimSpace(productID) == "" {
		return malformed("productId vide")
	}
	productID = e.catalog.NormalizeID(productID)
	if attrs.ShippingFee.IsNegative() {
		return malformed("shippingFee négatif: %s", attrs.ShippingFee.String())
	}

	userErrs, err := e.catalog.SetMetafields(ctx, EncodeAttributes(productID, attrs))
	if err != nil {
		return &CatalogWriteError{ProductID: productID, Err: err}
	}
	if len(userErrs) > 0 {
		return &CatalogWriteError{ProductID: productID, FieldErrors: userErrs}
	}
	return nil
}
