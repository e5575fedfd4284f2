package shipping

import (
	"testing"

	"cedra_shipping/internal/catalog"
)

func TestDecodeAttributesDefaults(t *testing.T) {
	cases := []struct {
		name     string
		fields   []catalog.Metafield
		wantPaid bool
		wantFee  string
	}{
		{"nothing set", nil, false, "0"},
		{"only flag", []catalog.Metafield{{Key: KeyRequiresPaidShipping, Value: "true"}}, true, "0"},
		{"only fee", []catalog.Metafield{{Key: KeyShippingFee, Value: "3.25"}}, false, "3.25"},
		{"flag not exactly true", []catalog.Metafield{{Key: KeyRequiresPaidShipping, Value: "TRUE"}}, false, "0"},
		{"garbage fee", []catalog.Metafield{{Key: KeyRequiresPaidShipping, Value: "true"}, {Key: KeyShippingFee, Value: "abc"}}, true, "0"},
		{"empty fee", []catalog.Metafield{{Key: KeyShippingFee, Value: ""}}, false, "0"},
		{"negative fee", []catalog.Metafield{{Key: KeyShippingFee, Value: "-2"}}, false, "0"},
		{"other namespace ignored", []catalog.Metafield{{Namespace: "seo", Key: KeyRequiresPaidShipping, Value: "true"}}, false, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DecodeAttributes(tc.fields)
			if got.RequiresPaidShipping != tc.wantPaid {
				t.Fatalf("flag: got=%v want=%v", got.RequiresPaidShipping, tc.wantPaid)
			}
			if got.ShippingFee.String() != tc.wantFee {
				t.Fatalf("fee: got=%s want=%s", got.ShippingFee.String(), tc.wantFee)
			}
		})
	}
}

func TestEncodeAttributesUsesFixedKeysAndTypes(t *testing.T) {
	inputs := EncodeAttributes("P1", attrs(false, "12.50"))
	if len(inputs) != 2 {
		t.Fatalf("inputs: got=%d want=2", len(inputs))
	}
	flag, fee := inputs[0], inputs[1]
	if flag.Namespace != Namespace || flag.Key != KeyRequiresPaidShipping || flag.Type != catalog.TypeBoolean || flag.Value != "false" {
		t.Fatalf("flag input: %+v", flag)
	}
	if fee.Namespace != Namespace || fee.Key != KeyShippingFee || fee.Type != catalog.TypeNumberDecimal || fee.Value != "12.5" {
		t.Fatalf("fee input: %+v", fee)
	}
	if flag.OwnerID != "P1" || fee.OwnerID != "P1" {
		t.Fatalf("owner: %q %q", flag.OwnerID, fee.OwnerID)
	}
	if errs := catalog.ValidateInputs(inputs, nil); len(errs) != 0 {
		t.Fatalf("encoded inputs fail catalog validation: %+v", errs)
	}
}
