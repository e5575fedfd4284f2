package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cedra_shipping/internal/models"
)

const seed = `
products:
  - id: P1
    title: Mug
    metafields:
      - {namespace: shipping, key: has_shipping_charge, value: "true", type: boolean}
      - {namespace: shipping, key: shipping_fee, value: "5.00", type: number_decimal}
  - id: P2
    title: Poster
    metafields:
      - {namespace: shipping, key: has_shipping_charge, value: "false", type: boolean}
      - {namespace: shipping, key: shipping_fee, value: "3.00", type: number_decimal}
  - id: P3
    title: Sticker
`

func setupEnv(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CATALOG_DRIVER", "memory")
	t.Setenv("CATALOG_SEED_FILE", path)
	t.Setenv("REDIS_HOST", "")
	t.Setenv("STORE_CURRENCY", "EUR")
	t.Setenv("SHIPPING_FEE_MODE", "per_product")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"shippingctl"}, args...))
	return out.String(), err
}

func TestQuoteCommand(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "quote", "--item", "P1", "--item", "P2:4", "--item", "P1:2")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	var q models.ShippingRateQuote
	if err := json.Unmarshal([]byte(out), &q); err != nil {
		t.Fatalf("output is not a quote: %v\n%s", err, out)
	}
	if len(q.Rates) != 1 || q.Rates[0].TotalPrice != "500" || q.Rates[0].Currency != "EUR" {
		t.Fatalf("got=%+v", q.Rates)
	}
}

func TestQuoteCommandUnknownProduct(t *testing.T) {
	setupEnv(t)
	if _, err := run(t, "quote", "--item", "nope"); err == nil {
		t.Fatal("expected error for unknown product")
	}
}

func TestGetCommandDefaults(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "get", "P3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(out, `"hasShippingCharge": false`) || !strings.Contains(out, `"shippingFee": 0`) {
		t.Fatalf("got=%s", out)
	}
}

func TestSetCommandRejectsNegativeFee(t *testing.T) {
	setupEnv(t)
	if _, err := run(t, "set", "--charge", "--fee", "-1", "P1"); err == nil {
		t.Fatal("expected error")
	}
	out, err := run(t, "set", "--charge", "--fee", "7.25", "P1")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !strings.Contains(out, "P1") {
		t.Fatalf("got=%s", out)
	}
}

func TestListCommandTable(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "list", "--first", "2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"ID", "P1", "Mug", "5.00", "P2", "--after 2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Sticker") {
		t.Fatalf("page size not honoured:\n%s", out)
	}
}

func TestListCommandJSON(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "list", "--first", "1", "--format", "json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var body struct {
		Products []struct {
			ID          string          `json:"id"`
			ShippingFee json.RawMessage `json:"shippingFee"`
		} `json:"products"`
		PageInfo models.PageInfo `json:"pageInfo"`
	}
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(body.Products) != 1 || body.Products[0].ID != "P1" || string(body.Products[0].ShippingFee) != "5" {
		t.Fatalf("got=%s", out)
	}
	if !body.PageInfo.HasNextPage || body.PageInfo.EndCursor != "1" {
		t.Fatalf("pageInfo: %+v", body.PageInfo)
	}
}

func TestParseItems(t *testing.T) {
	items, err := parseItems([]string{"P1", "P2:3", "gid://shopify/Product/9"})
	if err != nil {
		t.Fatalf("parseItems: %v", err)
	}
	if items[1].ProductID != "P2" || items[1].Quantity != 3 || items[2].ProductID != "gid://shopify/Product/9" {
		t.Fatalf("got=%+v", items)
	}
	if _, err := parseItems([]string{"P1:zero"}); err == nil {
		t.Fatal("expected error for bad quantity")
	}
}
