package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"

	"cedra_shipping/internal/logger"
	"cedra_shipping/internal/models"
)

func newTestSearch(t *testing.T, h http.HandlerFunc) *ProductSearch {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// le client v8 refuse les réponses sans cet en-tête
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewProductSearch(client, "products", logger.Nop())
}

func TestSearchMapsHitsToSummaries(t *testing.T) {
	var gotPath, gotBody string
	s := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		io.WriteString(w, `{"hits":{"hits":[
			{"_id":"gid://shopify/Product/1","_source":{"name":"Mug"}},
			{"_id":"P2","_source":{"title":"Poster"}}
		]}}`)
	})

	got, err := s.Search(context.Background(), "mug", 20)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotPath != "/products/_search" {
		t.Fatalf("path: got=%q want=%q", gotPath, "/products/_search")
	}
	var body map[string]interface{}
	if err := json.Unmarshal([]byte(gotBody), &body); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if body["size"].(float64) != 20 {
		t.Fatalf("size: got=%v", body["size"])
	}
	if len(got) != 2 || got[0].ID != "gid://shopify/Product/1" || got[0].Title != "Mug" || got[1].Title != "Poster" {
		t.Fatalf("got=%+v", got)
	}
}

func TestSearchSurfacesElasticErrors(t *testing.T) {
	s := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"type":"index_not_found_exception"}}`)
	})
	if _, err := s.Search(context.Background(), "mug", 10); err == nil {
		t.Fatal("expected error for missing index")
	}
}

func TestSearchEmptyQueryDoesNotCallElastic(t *testing.T) {
	s := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	got, err := s.Search(context.Background(), "  ", 10)
	if err != nil || got != nil {
		t.Fatalf("got=%v err=%v", got, err)
	}
}

func TestIndexUsesProductIDAsDocumentID(t *testing.T) {
	var gotPath, gotMethod string
	s := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		io.WriteString(w, `{"result":"created"}`)
	})
	if err := s.Index(context.Background(), models.ProductSummary{ID: "P9", Title: "Tote"}); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if gotMethod != http.MethodPut || !strings.HasSuffix(gotPath, "/products/_doc/P9") {
		t.Fatalf("got %s %s", gotMethod, gotPath)
	}
}
