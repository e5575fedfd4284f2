package shipping

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"cedra_shipping/internal/models"
)

func attrs(paid bool, fee string) models.ShippingAttributes {
	return models.ShippingAttributes{RequiresPaidShipping: paid, ShippingFee: decimal.RequireFromString(fee)}
}

func onlyRate(t *testing.T, q models.ShippingRateQuote) models.ShippingRate {
	t.Helper()
	if len(q.Rates) != 1 {
		t.Fatalf("rates: got=%d want=1", len(q.Rates))
	}
	return q.Rates[0]
}

func TestAggregateFreeWhenNothingRequiresCharge(t *testing.T) {
	cases := map[string][]models.ShippingAttributes{
		"empty cart":        nil,
		"no attributes":     {{}},
		"fees without flag": {attrs(false, "3.00"), attrs(false, "99.99")},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			r := onlyRate(t, Aggregate("USD", items))
			if r.ServiceCode != models.ServiceFreeShipping || r.ServiceName != "Free Shipping" {
				t.Fatalf("service: got=%s/%q", r.ServiceCode, r.ServiceName)
			}
			if r.TotalPrice != "0" || r.Currency != "USD" {
				t.Fatalf("price: got=%q %q", r.TotalPrice, r.Currency)
			}
		})
	}
}

func TestAggregateSumsOnlyFlaggedFees(t *testing.T) {
	cases := []struct {
		name  string
		items []models.ShippingAttributes
		want  string
	}{
		{"single paid", []models.ShippingAttributes{attrs(true, "5.00")}, "500"},
		{"flag gates fee", []models.ShippingAttributes{attrs(true, "5.00"), attrs(false, "3.00")}, "500"},
		{"two paid", []models.ShippingAttributes{attrs(true, "5.00"), attrs(true, "2.50")}, "750"},
		{"paid with zero fee", []models.ShippingAttributes{attrs(true, "0")}, "0"},
		{"decimal exactness", []models.ShippingAttributes{attrs(true, "0.10"), attrs(true, "0.20")}, "30"},
		{"sub-cent rounds", []models.ShippingAttributes{attrs(true, "1.005")}, "101"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := onlyRate(t, Aggregate("EUR", tc.items))
			if r.ServiceCode != models.ServiceStandardShipping || r.ServiceName != "Standard Shipping" {
				t.Fatalf("service: got=%s/%q", r.ServiceCode, r.ServiceName)
			}
			if r.TotalPrice != tc.want {
				t.Fatalf("total_price: got=%q want=%q", r.TotalPrice, tc.want)
			}
			if r.Currency != "EUR" {
				t.Fatalf("currency: got=%q", r.Currency)
			}
		})
	}
}

func TestAggregateIsOrderIndependent(t *testing.T) {
	items := []models.ShippingAttributes{
		attrs(true, "5.00"), attrs(false, "3.00"), attrs(true, "2.50"), attrs(true, "0.99"), {},
	}
	want := Aggregate("USD", items)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		shuffled := append([]models.ShippingAttributes(nil), items...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := onlyRate(t, Aggregate("USD", shuffled)); got != want.Rates[0] {
			t.Fatalf("permutation %d: got=%+v want=%+v", i, got, want.Rates[0])
		}
	}
}

func TestAggregateSumsSequenceAsGiven(t *testing.T) {
	paid := attrs(true, "4.00")
	r := onlyRate(t, Aggregate("USD", []models.ShippingAttributes{paid, paid}))
	if r.TotalPrice != "800" {
		t.Fatalf("duplicates in the sequence are each counted: got=%q want=%q", r.TotalPrice, "800")
	}
}
