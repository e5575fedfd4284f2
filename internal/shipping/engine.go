package shipping

import (
	"github.com/shopspring/decimal"

	"cedra_shipping/internal/models"
)

var minorUnitsPerMajor = decimal.NewFromInt(100)

// Aggregate calcule l'unique tarif d'un panier à partir des attributs résolus.
// La somme porte sur la séquence telle quelle : dédupliquer est du ressort de
// l'appelant. Un panier vide est gratuit.
func Aggregate(currency string, items []models.ShippingAttributes) models.ShippingRateQuote {
	requiresCharge := false
	total := decimal.Zero
	for _, it := range items {
		if !it.RequiresPaidShipping {
			continue
		}
		requiresCharge = true
		total = total.Add(it.ShippingFee)
	}

	if !requiresCharge {
		return models.ShippingRateQuote{Rates: []models.ShippingRate{{
			ServiceName: models.ServiceNameFreeShipping,
			ServiceCode: models.ServiceFreeShipping,
			TotalPrice:  "0",
			Currency:    currency,
		}}}
	}

	return models.ShippingRateQuote{Rates: []models.ShippingRate{{
		ServiceName: models.ServiceNameStandardShipping,
		ServiceCode: models.ServiceStandardShipping,
		TotalPrice:  ToMinorUnits(total),
		Currency:    currency,
	}}}
}

// ToMinorUnits convertit un montant en centimes entiers (arrondi au plus proche)
func ToMinorUnits(amount decimal.Decimal) string {
	return amount.Mul(minorUnitsPerMajor).Round(0).StringFixed(0)
}
