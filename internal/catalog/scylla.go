package catalog

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
)

// Schéma attendu (scripts/scylladb_init.cql) :
//
//	CREATE TABLE product_metafields (
//	  product_id text, namespace text, key text, value text, type text, updated_at timestamp,
//	  PRIMARY KEY ((product_id), namespace, key));
//
// La table products est celle du keyspace produits (product_id uuid, name text, ...).
type Scylla struct {
	session *gocql.Session
}

func NewScylla(session *gocql.Session) *Scylla {
	return &Scylla{session: session}
}

// les identifiants Scylla sont des UUID, seule la casse varie
func (s *Scylla) NormalizeID(productID string) string {
	return strings.ToLower(strings.TrimSpace(productID))
}

func (s *Scylla) ProductMetafields(ctx context.Context, productID, namespace string) ([]Metafield, error) {
	exists, err := s.productExists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.Wrapf(ErrProductNotFound, "produit %s", productID)
	}
	return s.metafields(ctx, productID, namespace)
}

func (s *Scylla) ListProducts(ctx context.Context, namespace string, first int, after string) (*ProductPage, error) {
	state, err := decodeCursor(after)
	if err != nil {
		return nil, err
	}
	iter := s.session.Query(`SELECT product_id, name FROM products`).
		WithContext(ctx).
		PageSize(first).
		PageState(state).
		Iter()

	page := &ProductPage{}
	var (
		id   gocql.UUID
		name string
	)
	// Scan ne lit que la page courante tant que PageSize est fixé
	for n := 0; n < first && iter.Scan(&id, &name); n++ {
		page.Products = append(page.Products, Product{ID: id.String(), Title: name})
	}
	next := iter.PageState()
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "lecture products")
	}
	if len(next) > 0 {
		page.HasNextPage = true
		page.EndCursor = encodeCursor(next)
	}

	for i := range page.Products {
		fields, err := s.metafields(ctx, page.Products[i].ID, namespace)
		if err != nil {
			return nil, err
		}
		page.Products[i].Metafields = fields
	}
	return page, nil
}

func (s *Scylla) SetMetafields(ctx context.Context, inputs []MetafieldInput) ([]UserError, error) {
	owners := make(map[string]bool)
	for _, in := range inputs {
		if _, seen := owners[in.OwnerID]; seen || in.OwnerID == "" {
			continue
		}
		ok, err := s.productExists(ctx, in.OwnerID)
		if err != nil {
			return nil, err
		}
		owners[in.OwnerID] = ok
	}
	if userErrs := ValidateInputs(inputs, func(id string) bool { return owners[id] }); len(userErrs) > 0 {
		return userErrs, nil
	}

	// Batch LOGGED : toutes les lignes passent ou aucune
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	now := time.Now()
	for _, in := range inputs {
		batch.Query(`INSERT INTO product_metafields (product_id, namespace, key, value, type, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			in.OwnerID, in.Namespace, in.Key, in.Value, in.Type, now)
	}
	if err := s.session.ExecuteBatch(batch); err != nil {
		return nil, errors.Wrap(err, "écriture product_metafields")
	}
	return nil, nil
}

func (s *Scylla) productExists(ctx context.Context, productID string) (bool, error) {
	uid, err := gocql.ParseUUID(productID)
	if err != nil {
		return false, nil
	}
	var found gocql.UUID
	err = s.session.Query(`SELECT product_id FROM products WHERE product_id = ?`, uid).
		WithContext(ctx).
		Scan(&found)
	if errors.Is(err, gocql.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "lecture produit %s", productID)
	}
	return true, nil
}

func (s *Scylla) metafields(ctx context.Context, productID, namespace string) ([]Metafield, error) {
	iter := s.session.Query(`SELECT namespace, key, value, type FROM product_metafields WHERE product_id = ? AND namespace = ?`,
		productID, namespace).WithContext(ctx).Iter()

	var (
		out []Metafield
		f   Metafield
	)
	for iter.Scan(&f.Namespace, &f.Key, &f.Value, &f.Type) {
		out = append(out, f)
		f = Metafield{}
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrapf(err, "lecture métachamps %s", productID)
	}
	return out, nil
}

func encodeCursor(state []byte) string {
	return base64.RawURLEncoding.EncodeToString(state)
}

func decodeCursor(cursor string) ([]byte, error) {
	if cursor == "" {
		return nil, nil
	}
	state, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidCursor, "%q", cursor)
	}
	return state, nil
}
