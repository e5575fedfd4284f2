package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const productGIDPrefix = "gid://shopify/Product/"

const productMetafieldsQuery = `query ProductShippingMetafields($id: ID!, $namespace: String!) {
  product(id: $id) {
    id
    metafields(first: 20, namespace: $namespace) {
      edges { node { namespace key value type } }
    }
  }
}`

const listProductsQuery = `query ProductsWithMetafields($first: Int!, $after: String, $namespace: String!) {
  products(first: $first, after: $after) {
    edges {
      node {
        id
        title
        metafields(first: 20, namespace: $namespace) {
          edges { node { namespace key value type } }
        }
      }
    }
    pageInfo { hasNextPage endCursor }
  }
}`

const metafieldsSetMutation = `mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields { key value }
    userErrors { field message }
  }
}`

type ShopifyConfig struct {
	Shop        string
	AccessToken string
	APIVersion  string
	Timeout     time.Duration
	MaxRetries  int
	// Endpoint remplace l'URL calculée à partir de Shop (tests)
	Endpoint   string
	HTTPClient *http.Client
}

// Shopify parle à l'API Admin GraphQL de la boutique
type Shopify struct {
	endpoint   string
	token      string
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	client     *http.Client
	tracer     trace.Tracer
}

func NewShopify(cfg ShopifyConfig) *Shopify {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		shop := strings.TrimSuffix(strings.TrimPrefix(cfg.Shop, "https://"), "/")
		endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, cfg.APIVersion)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		}
	}
	return &Shopify{
		endpoint:   endpoint,
		token:      cfg.AccessToken,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		backoff:    200 * time.Millisecond,
		client:     client,
		tracer:     otel.Tracer("cedra_shipping/catalog"),
	}
}

// ProductGID convertit un identifiant numérique en GID Shopify
func ProductGID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, "gid://") {
		return id
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return id
		}
	}
	return productGIDPrefix + id
}

func (s *Shopify) NormalizeID(productID string) string {
	return ProductGID(productID)
}

type metafieldConnection struct {
	Edges []struct {
		Node Metafield `json:"node"`
	} `json:"edges"`
}

func (c metafieldConnection) fields() []Metafield {
	out := make([]Metafield, 0, len(c.Edges))
	for _, e := range c.Edges {
		out = append(out, e.Node)
	}
	return out
}

type productNode struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Metafields metafieldConnection `json:"metafields"`
}

func (s *Shopify) ProductMetafields(ctx context.Context, productID, namespace string) ([]Metafield, error) {
	var data struct {
		Product *productNode `json:"product"`
	}
	vars := map[string]any{"id": ProductGID(productID), "namespace": namespace}
	if err := s.do(ctx, "ProductShippingMetafields", productMetafieldsQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Product == nil {
		return nil, errors.Wrapf(ErrProductNotFound, "produit %s", productID)
	}
	return data.Product.Metafields.fields(), nil
}

func (s *Shopify) ListProducts(ctx context.Context, namespace string, first int, after string) (*ProductPage, error) {
	var data struct {
		Products *struct {
			Edges []struct {
				Node productNode `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				HasNextPage bool    `json:"hasNextPage"`
				EndCursor   *string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"products"`
	}
	vars := map[string]any{"first": first, "namespace": namespace, "after": nil}
	if after != "" {
		vars["after"] = after
	}
	if err := s.do(ctx, "ProductsWithMetafields", listProductsQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Products == nil {
		return nil, errors.New("réponse GraphQL invalide: products absent")
	}
	page := &ProductPage{HasNextPage: data.Products.PageInfo.HasNextPage}
	if data.Products.PageInfo.EndCursor != nil {
		page.EndCursor = *data.Products.PageInfo.EndCursor
	}
	for _, e := range data.Products.Edges {
		page.Products = append(page.Products, Product{
			ID:         e.Node.ID,
			Title:      e.Node.Title,
			Metafields: e.Node.Metafields.fields(),
		})
	}
	return page, nil
}

func (s *Shopify) SetMetafields(ctx context.Context, inputs []MetafieldInput) ([]UserError, error) {
	normalized := make([]MetafieldInput, len(inputs))
	for i, in := range inputs {
		in.OwnerID = ProductGID(in.OwnerID)
		normalized[i] = in
	}
	var data struct {
		MetafieldsSet *struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	if err := s.do(ctx, "metafieldsSet", metafieldsSetMutation, map[string]any{"metafields": normalized}, &data); err != nil {
		return nil, err
	}
	if data.MetafieldsSet == nil {
		return nil, errors.New("réponse GraphQL invalide: metafieldsSet absent")
	}
	return data.MetafieldsSet.UserErrors, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message    string `json:"message"`
		Extensions struct {
			Code string `json:"code"`
		} `json:"extensions"`
	} `json:"errors"`
}

// statusError porte le code HTTP d'une réponse en échec
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("catalogue HTTP %d: %s", e.status, e.body)
}

var errThrottled = errors.New("catalogue: requête limitée (THROTTLED)")

func (s *Shopify) do(ctx context.Context, operation, query string, vars map[string]any, out any) error {
	ctx, span := s.tracer.Start(ctx, "shopify."+operation, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return errors.Wrap(err, "encodage requête GraphQL")
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			span.AddEvent("retry", trace.WithAttributes(attribute.Int("attempt", attempt)))
			if err := sleepCtx(ctx, jitter(s.backoff*time.Duration(1<<(attempt-1)))); err != nil {
				break
			}
		}
		lastErr = s.once(ctx, body, out)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			break
		}
	}
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return errors.Wrapf(lastErr, "appel GraphQL %s", operation)
}

func (s *Shopify) once(ctx context.Context, body []byte, out any) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &statusError{status: resp.StatusCode, body: truncate(string(raw), 200)}
	}

	var gr graphQLResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return errors.Wrap(err, "réponse GraphQL illisible")
	}
	if len(gr.Errors) > 0 {
		for _, e := range gr.Errors {
			if e.Extensions.Code == "THROTTLED" {
				return errThrottled
			}
		}
		return errors.Errorf("erreur GraphQL: %s", gr.Errors[0].Message)
	}
	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		return errors.New("réponse GraphQL sans data")
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return errors.Wrap(err, "data GraphQL inattendue")
	}
	return nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, errThrottled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.status == http.StatusRequestTimeout || se.status == http.StatusTooManyRequests || se.status >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := float64(base) * 0.2
	return time.Duration(float64(base) - delta + rand.Float64()*2*delta)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
