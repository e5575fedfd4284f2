package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"cedra_shipping/internal/catalog"
	"cedra_shipping/internal/handlers/admin"
	"cedra_shipping/internal/handlers/carrier"
	"cedra_shipping/internal/logger"
	"cedra_shipping/internal/models"
	"cedra_shipping/internal/observability"
	"cedra_shipping/internal/shipping"
	"cedra_shipping/internal/utils"
)

var secret = []byte("routes-secret")

type chanSink chan models.AuditLog

func (s chanSink) Record(_ context.Context, e models.AuditLog) error {
	s <- e
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, chanSink) {
	t.Helper()
	r, sink, _ := newRouterWithSecret(t, secret)
	return r, sink
}

func newRouterWithSecret(t *testing.T, key []byte) (*gin.Engine, chanSink, *catalog.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mem := catalog.NewMemory()
	mem.AddProduct("P1", "Mug")

	log := logger.Nop()
	metrics := observability.NewMetrics()
	resolver := shipping.NewResolver(mem, 4)
	sink := make(chanSink, 4)

	r := NewRouter(RouterConfig{
		ServiceName: "test",
		JWTSecret:   key,
		Metrics:     metrics,
		Auditor:     utils.NewAuditor(sink, log),
		Log:         log,
		Rates:       carrier.NewRatesHandler(shipping.NewQuoteService(resolver, "USD", shipping.FeePerProduct), time.Second, metrics, log),
		Settings:    admin.NewShippingSettingsHandler(resolver, shipping.NewEditor(mem), nil, metrics, log),
	})
	return r, sink, mem
}

func token(t *testing.T, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "admin-1",
		"email":   "ops@example.com",
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("health: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/shipping/rates", strings.NewReader(`{"items":[{"product_id":"P1"}]}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("rates: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `shipping_quotes_total{service_code="FREE_SHIPPING"} 1`) {
		t.Fatalf("metrics missing quote counter:\n%s", rec.Body.String())
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	r, _ := newTestRouter(t)
	cases := map[string]int{"": http.StatusUnauthorized, "customer": http.StatusForbidden, "admin": http.StatusOK}
	for role, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/shipping/products", nil)
		if role != "" {
			req.Header.Set("Authorization", "Bearer "+token(t, role))
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("role %q: got=%d want=%d", role, rec.Code, want)
		}
	}
}

func TestSettingsWriteIsAudited(t *testing.T) {
	r, sink := newTestRouter(t)
	form := url.Values{"productId": {"P1"}, "hasShippingCharge": {"true"}, "shippingFee": {"4.20"}}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/shipping/products", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token(t, "admin"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}

	select {
	case e := <-sink:
		if e.Action != utils.ACTION_SHIPPING_SETTINGS_UPDATE || e.ResourceID != "P1" || !e.Success || e.UserID != "admin-1" {
			t.Fatalf("audit entry: %+v", e)
		}
		if !strings.Contains(e.OldValue, `"hasShippingCharge":false`) || !strings.Contains(e.NewValue, `"shippingFee":4.2`) {
			t.Fatalf("old/new values: %q -> %q", e.OldValue, e.NewValue)
		}
		if e.RequestID == "" {
			t.Fatal("request id not recorded")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no audit entry recorded")
	}
}

func TestAdminRoutesClosedWithoutSecret(t *testing.T) {
	r, _, mem := newRouterWithSecret(t, nil)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "intruder",
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte{})
	if err != nil {
		t.Fatal(err)
	}

	form := url.Values{"productId": {"P1"}, "hasShippingCharge": {"true"}, "shippingFee": {"9.99"}}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/shipping/products", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusInternalServerError)
	}

	fields, err := mem.ProductMetafields(context.Background(), "P1", shipping.Namespace)
	if err != nil {
		t.Fatalf("ProductMetafields: %v", err)
	}
	if len(fields) != 0 {
		t.Fatalf("write went through: %+v", fields)
	}
}
