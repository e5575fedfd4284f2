// Package catalog est le port vers le catalogue produits externe : lecture des
// métachamps d'un produit, listing paginé et écriture atomique de métachamps.
package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Types de valeurs reconnus par le catalogue
const (
	TypeBoolean       = "boolean"
	TypeNumberDecimal = "number_decimal"
)

var (
	ErrProductNotFound = errors.New("produit introuvable")
	ErrInvalidCursor   = errors.New("curseur invalide")
)

type Metafield struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	Key       string `json:"key" yaml:"key"`
	Value     string `json:"value" yaml:"value"`
	Type      string `json:"type" yaml:"type"`
}

type MetafieldInput struct {
	OwnerID   string `json:"ownerId"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

// UserError est une erreur de validation renvoyée champ par champ
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func (e UserError) String() string {
	if len(e.Field) == 0 {
		return e.Message
	}
	return strings.Join(e.Field, ".") + ": " + e.Message
}

type Product struct {
	ID         string
	Title      string
	Metafields []Metafield
}

type ProductPage struct {
	Products    []Product
	HasNextPage bool
	EndCursor   string
}

// Identifier ramène un identifiant produit à la forme du catalogue.
// Toutes les formes d'un même produit donnent la même valeur.
type Identifier interface {
	NormalizeID(productID string) string
}

type Reader interface {
	Identifier
	// ProductMetafields renvoie les métachamps du namespace pour un produit.
	// ErrProductNotFound si le produit n'existe pas.
	ProductMetafields(ctx context.Context, productID, namespace string) ([]Metafield, error)
	ListProducts(ctx context.Context, namespace string, first int, after string) (*ProductPage, error)
}

type Writer interface {
	Identifier
	// SetMetafields écrit toutes les entrées ou aucune. Les erreurs de
	// validation sont renvoyées dans la liste, err ne couvre que le transport.
	SetMetafields(ctx context.Context, inputs []MetafieldInput) ([]UserError, error)
}

type Catalog interface {
	Reader
	Writer
}

// ValidateInputs applique les règles de type du catalogue distant.
// Utilisé par les drivers qui stockent eux-mêmes les métachamps.
func ValidateInputs(inputs []MetafieldInput, ownerExists func(string) bool) []UserError {
	var errs []UserError
	for i, in := range inputs {
		field := func(name string) []string {
			return []string{"metafields", strconv.Itoa(i), name}
		}
		if strings.TrimSpace(in.OwnerID) == "" || (ownerExists != nil && !ownerExists(in.OwnerID)) {
			errs = append(errs, UserError{Field: field("ownerId"), Message: "Owner does not exist"})
			continue
		}
		if in.Namespace == "" || in.Key == "" {
			errs = append(errs, UserError{Field: field("key"), Message: "Key can't be blank"})
			continue
		}
		switch in.Type {
		case TypeBoolean:
			if in.Value != "true" && in.Value != "false" {
				errs = append(errs, UserError{Field: field("value"), Message: "Value must be true or false"})
			}
		case TypeNumberDecimal:
			if _, err := decimal.NewFromString(in.Value); err != nil {
				errs = append(errs, UserError{Field: field("value"), Message: "Value must be a decimal"})
			}
		default:
			errs = append(errs, UserError{Field: field("type"), Message: "Type is invalid"})
		}
	}
	return errs
}
