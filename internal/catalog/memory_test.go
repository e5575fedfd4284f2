package catalog

import (
	"context"
	"errors"
	"testing"
)

const seedYAML = `
products:
  - id: P1
    title: Mug
  - id: P2
    title: Poster
    metafields:
      - namespace: shipping
        key: has_shipping_charge
        value: "true"
        type: boolean
      - namespace: shipping
        key: shipping_fee
        value: "4.20"
        type: number_decimal
      - namespace: seo
        key: title
        value: Poster
        type: single_line_text_field
  - id: P3
    title: Sticker
`

func TestParseSeedAndReadNamespace(t *testing.T) {
	m, err := ParseSeed([]byte(seedYAML))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	fields, err := m.ProductMetafields(context.Background(), "P2", "shipping")
	if err != nil {
		t.Fatalf("ProductMetafields: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("fields: got=%d want=2 (%+v)", len(fields), fields)
	}
	if fields[0].Key != "has_shipping_charge" || fields[1].Value != "4.20" {
		t.Fatalf("unexpected fields: %+v", fields)
	}

	empty, err := m.ProductMetafields(context.Background(), "P1", "shipping")
	if err != nil || len(empty) != 0 {
		t.Fatalf("P1: got=%+v err=%v", empty, err)
	}

	if _, err := m.ProductMetafields(context.Background(), "nope", "shipping"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("unknown product: got err=%v", err)
	}
}

func TestListProductsPaginates(t *testing.T) {
	m, err := ParseSeed([]byte(seedYAML))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	ctx := context.Background()

	page, err := m.ListProducts(ctx, "shipping", 2, "")
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(page.Products) != 2 || !page.HasNextPage || page.Products[1].ID != "P2" {
		t.Fatalf("first page: %+v", page)
	}
	next, err := m.ListProducts(ctx, "shipping", 2, page.EndCursor)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(next.Products) != 1 || next.HasNextPage || next.Products[0].ID != "P3" {
		t.Fatalf("second page: %+v", next)
	}
	if _, err := m.ListProducts(ctx, "shipping", 2, "abc"); !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("got err=%v want ErrInvalidCursor", err)
	}
}

func TestSetMetafieldsIsAllOrNothing(t *testing.T) {
	m := NewMemory()
	m.AddProduct("P1", "Mug")
	ctx := context.Background()

	userErrs, err := m.SetMetafields(ctx, []MetafieldInput{
		{OwnerID: "P1", Namespace: "shipping", Key: "has_shipping_charge", Value: "true", Type: TypeBoolean},
		{OwnerID: "P1", Namespace: "shipping", Key: "shipping_fee", Value: "abc", Type: TypeNumberDecimal},
	})
	if err != nil {
		t.Fatalf("SetMetafields: %v", err)
	}
	if len(userErrs) != 1 || userErrs[0].String() != "metafields.1.value: Value must be a decimal" {
		t.Fatalf("user errors: %+v", userErrs)
	}
	fields, _ := m.ProductMetafields(ctx, "P1", "shipping")
	if len(fields) != 0 {
		t.Fatalf("partial write happened: %+v", fields)
	}

	userErrs, err = m.SetMetafields(ctx, []MetafieldInput{
		{OwnerID: "P9", Namespace: "shipping", Key: "has_shipping_charge", Value: "true", Type: TypeBoolean},
	})
	if err != nil || len(userErrs) != 1 || userErrs[0].Message != "Owner does not exist" {
		t.Fatalf("unknown owner: errs=%+v err=%v", userErrs, err)
	}
}
