package shipping

import (
	"github.com/shopspring/decimal"

	"cedra_shipping/internal/catalog"
	"cedra_shipping/internal/models"
)

// Clés de stockage des attributs de livraison. La lecture et l'écriture
// passent toutes deux par DecodeAttributes / EncodeAttributes.
const (
	Namespace               = "shipping"
	KeyRequiresPaidShipping = "has_shipping_charge"
	KeyShippingFee          = "shipping_fee"
)

// DecodeAttributes lit les métachamps du namespace. Valeurs absentes ou
// illisibles : (false, 0), jamais d'erreur.
func DecodeAttributes(fields []catalog.Metafield) models.ShippingAttributes {
	var attrs models.ShippingAttributes
	for _, f := range fields {
		if f.Namespace != "" && f.Namespace != Namespace {
			continue
		}
		switch f.Key {
		case KeyRequiresPaidShipping:
			attrs.RequiresPaidShipping = f.Value == "true"
		case KeyShippingFee:
			attrs.ShippingFee = parseFee(f.Value)
		}
	}
	return attrs
}

func parseFee(v string) decimal.Decimal {
	fee, err := decimal.NewFromString(v)
	if err != nil || fee.IsNegative() {
		return decimal.Zero
	}
	return fee
}

// EncodeAttributes produit les deux entrées à écrire en une seule requête
func EncodeAttributes(productID string, attrs models.ShippingAttributes) []catalog.MetafieldInput {
	flag := "false"
	if attrs.RequiresPaidShipping {
		flag = "true"
	}
	return []catalog.MetafieldInput{
		{
			OwnerID:   productID,
			Namespace: Namespace,
			Key:       KeyRequiresPaidShipping,
			Value:     flag,
			Type:      catalog.TypeBoolean,
		},
		{
			OwnerID:   productID,
			Namespace: Namespace,
			Key:       KeyShippingFee,
			Value:     attrs.ShippingFee.String(),
			Type:      catalog.TypeNumberDecimal,
		},
	}
}
