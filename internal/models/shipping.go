package models

import "github.com/shopspring/decimal"

// ServiceCode identifie un service de livraison de façon stable
type ServiceCode string

const (
	ServiceFreeShipping     ServiceCode = "FREE_SHIPPING"
	ServiceStandardShipping ServiceCode = "STANDARD_SHIPPING"
)

const (
	ServiceNameFreeShipping     = "Free Shipping"
	ServiceNameStandardShipping = "Standard Shipping"
)

// ShippingAttributes est la configuration de livraison d'un produit.
// La valeur zéro correspond à un produit sans attribut : (false, 0).
type ShippingAttributes struct {
	RequiresPaidShipping bool            `json:"requires_paid_shipping"`
	ShippingFee          decimal.Decimal `json:"shipping_fee"`
}

// ShippingRate est une option de livraison renvoyée au checkout.
// TotalPrice est exprimé en unités mineures (centimes).
type ShippingRate struct {
	ServiceName string      `json:"service_name"`
	ServiceCode ServiceCode `json:"service_code"`
	TotalPrice  string      `json:"total_price"`
	Currency    string      `json:"currency"`
}

type ShippingRateQuote struct {
	Rates []ShippingRate `json:"rates"`
}

// ProductShippingSettings est une ligne du tableau d'administration
type ProductShippingSettings struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	HasShippingCharge bool            `json:"hasShippingCharge"`
	ShippingFee       decimal.Decimal `json:"shippingFee"`
}

type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor,omitempty"`
}

type ProductShippingPage struct {
	Products []ProductShippingSettings `json:"products"`
	PageInfo PageInfo                  `json:"pageInfo"`
}

// ProductSummary est le minimum renvoyé par la recherche produits
type ProductSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
