package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"cedra_shipping/internal/logger"
	"cedra_shipping/internal/models"
)

// ProductSearch interroge l'index produits pour la page d'administration
type ProductSearch struct {
	client *elasticsearch.Client
	index  string
	log    *logger.Logger
}

func NewProductSearch(client *elasticsearch.Client, index string, log *logger.Logger) *ProductSearch {
	if index == "" {
		index = "products"
	}
	return &ProductSearch{client: client, index: index, log: log}
}

type productDoc struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

//
// --- INDEXATION DANS ELASTICSEARCH ---
//

// Index indexe (ou remplace) un produit, l'identifiant catalogue sert d'_id
func (s *ProductSearch) Index(ctx context.Context, p models.ProductSummary) error {
	data, err := json.Marshal(productDoc{Name: p.Title})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("erreur envoi Elastic: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elastic a refusé %s: %s", p.ID, res.String())
	}
	s.log.Debug("✅ Produit indexé dans Elasticsearch", "product_id", p.ID)
	return nil
}

//
// --- RECHERCHE DANS ELASTICSEARCH ---
//

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string     `json:"_id"`
			Source productDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search renvoie les produits dont le nom, la description ou les tags correspondent
func (s *ProductSearch) Search(ctx context.Context, query string, size int) ([]models.ProductSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"size":    size,
		"_source": []string{"name", "title"},
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name", "title", "description", "tags"},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		s.log.Warn("❌ Elasticsearch erreur", "status", res.StatusCode, "index", s.index)
		return nil, fmt.Errorf("elastic: %s", res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %w", err)
	}

	out := make([]models.ProductSummary, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		title := hit.Source.Name
		if title == "" {
			title = hit.Source.Title
		}
		out = append(out, models.ProductSummary{ID: hit.ID, Title: title})
	}
	return out, nil
}
