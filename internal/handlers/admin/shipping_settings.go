package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cedra_shipping/internal/catalog"
	"cedra_shipping/internal/logger"
	"cedra_shipping/internal/middleware"
	"cedra_shipping/internal/models"
	"cedra_shipping/internal/observability"
	"cedra_shipping/internal/shipping"
)

// ProductSearcher est la recherche plein texte utilisée quand ?q= est fourni
type ProductSearcher interface {
	Search(ctx context.Context, query string, size int) ([]models.ProductSummary, error)
}

type ShippingSettingsHandler struct {
	resolver *shipping.Resolver
	editor   *shipping.Editor
	search   ProductSearcher
	metrics  *observability.Metrics
	log      *logger.Logger
}

// search peut être nil : ?q= renvoie alors 503
func NewShippingSettingsHandler(resolver *shipping.Resolver, editor *shipping.Editor, search ProductSearcher, metrics *observability.Metrics, log *logger.Logger) *ShippingSettingsHandler {
	return &ShippingSettingsHandler{resolver: resolver, editor: editor, search: search, metrics: metrics, log: log}
}

type settingsJSON struct {
	ID                string      `json:"id"`
	Title             string      `json:"title,omitempty"`
	HasShippingCharge bool        `json:"hasShippingCharge"`
	ShippingFee       json.Number `json:"shippingFee"`
}

type fieldErrorJSON struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func toJSON(s models.ProductShippingSettings) settingsJSON {
	return settingsJSON{
		ID:                s.ID,
		Title:             s.Title,
		HasShippingCharge: s.HasShippingCharge,
		ShippingFee:       json.Number(s.ShippingFee.String()),
	}
}

// ListProducts renvoie une page de produits avec leurs réglages de livraison.
// GET /api/admin/shipping/products?first=&after=&q=
func (h *ShippingSettingsHandler) ListProducts(c *gin.Context) {
	first := 0
	if v := c.Query("first"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre first invalide"})
			return
		}
		first = n
	}
	first = shipping.ClampPageSize(first)

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		h.searchProducts(c, q, first)
		return
	}

	page, err := h.resolver.ListSettings(c.Request.Context(), first, c.Query("after"))
	if errors.Is(err, shipping.ErrInputMalformed) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre after invalide"})
		return
	}
	if err != nil {
		h.log.Warn("❌ Lecture des réglages impossible", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Catalogue indisponible"})
		return
	}
	c.JSON(http.StatusOK, pageJSON(page.Products, page.PageInfo))
}

func (h *ShippingSettingsHandler) searchProducts(c *gin.Context, q string, size int) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recherche produit non configurée"})
		return
	}
	found, err := h.search.Search(c.Request.Context(), q, size)
	if err != nil {
		h.log.Warn("❌ Recherche Elasticsearch impossible", "error", err, "q", q)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recherche indisponible"})
		return
	}
	settings, err := h.resolver.SettingsFor(c.Request.Context(), found)
	if err != nil {
		h.log.Warn("❌ Lecture des réglages impossible", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Catalogue indisponible"})
		return
	}
	c.JSON(http.StatusOK, pageJSON(settings, models.PageInfo{}))
}

func pageJSON(products []models.ProductShippingSettings, info models.PageInfo) gin.H {
	out := make([]settingsJSON, 0, len(products))
	for _, p := range products {
		out = append(out, toJSON(p))
	}
	return gin.H{"products": out, "pageInfo": info}
}

// GetProduct renvoie les réglages d'un seul produit.
// GET /api/admin/shipping/products/:id
func (h *ShippingSettingsHandler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	attrs, err := h.resolver.Resolve(c.Request.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, shipping.ErrInputMalformed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, catalog.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	default:
		h.log.Warn("❌ Lecture du produit impossible", "error", err, "product_id", id)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Catalogue indisponible"})
		return
	}
	c.JSON(http.StatusOK, toJSON(models.ProductShippingSettings{
		ID:                id,
		HasShippingCharge: attrs.RequiresPaidShipping,
		ShippingFee:       attrs.ShippingFee,
	}))
}

// UpdateProduct enregistre le drapeau et les frais d'un produit.
// POST /api/admin/shipping/products (formulaire productId, hasShippingCharge, shippingFee)
func (h *ShippingSettingsHandler) UpdateProduct(c *gin.Context) {
	productID := strings.TrimSpace(c.PostForm("productId"))
	c.Set(middleware.AuditResourceID, productID)

	attrs, msg := parseSettingsForm(productID, c.PostForm("hasShippingCharge"), c.PostForm("shippingFee"))
	if msg != "" {
		h.reject(c, http.StatusBadRequest, "invalid", gin.H{"error": msg}, msg)
		return
	}

	ctx := c.Request.Context()
	if prev, err := h.resolver.Resolve(ctx, productID); err == nil {
		c.Set(middleware.AuditOldValue, toJSON(settingsFor(productID, prev)))
	}
	c.Set(middleware.AuditNewValue, toJSON(settingsFor(productID, attrs)))

	err := h.editor.Write(ctx, productID, attrs)
	var writeErr *shipping.CatalogWriteError
	switch {
	case err == nil:
		h.metrics.SettingsWritten("ok")
		h.log.Info("✅ Réglages de livraison mis à jour",
			"product_id", productID,
			"has_shipping_charge", attrs.RequiresPaidShipping,
			"shipping_fee", attrs.ShippingFee.String(),
			"user_id", c.GetString(middleware.CtxUserID),
		)
		c.Status(http.StatusNoContent)
	case errors.Is(err, shipping.ErrInputMalformed):
		h.reject(c, http.StatusBadRequest, "invalid", gin.H{"error": err.Error()}, err.Error())
	case errors.As(err, &writeErr) && len(writeErr.FieldErrors) > 0:
		out := make([]fieldErrorJSON, 0, len(writeErr.FieldErrors))
		for _, fe := range writeErr.FieldErrors {
			out = append(out, fieldErrorJSON{Field: fe.Field, Message: fe.Message})
		}
		h.reject(c, http.StatusUnprocessableEntity, "rejected", gin.H{"errors": out}, err.Error())
	default:
		h.log.Error("❌ Écriture des réglages impossible", "error", err, "product_id", productID)
		h.reject(c, http.StatusBadGateway, "unavailable", gin.H{"error": "Catalogue indisponible, réglages non enregistrés"}, err.Error())
	}
}

func (h *ShippingSettingsHandler) reject(c *gin.Context, status int, outcome string, body gin.H, auditMsg string) {
	h.metrics.SettingsWritten(outcome)
	c.Set(middleware.AuditErrorMsg, auditMsg)
	c.JSON(status, body)
}

// parseSettingsForm renvoie un message d'erreur non vide si le formulaire est invalide
func parseSettingsForm(productID, flag, fee string) (models.ShippingAttributes, string) {
	var attrs models.ShippingAttributes
	if productID == "" {
		return attrs, "productId requis"
	}
	switch strings.TrimSpace(flag) {
	case "true":
		attrs.RequiresPaidShipping = true
	case "false":
	default:
		return attrs, "hasShippingCharge doit valoir true ou false"
	}
	fee = strings.TrimSpace(fee)
	if fee == "" {
		attrs.ShippingFee = decimal.Zero
		return attrs, ""
	}
	d, err := decimal.NewFromString(fee)
	if err != nil {
		return attrs, "shippingFee doit être un nombre décimal"
	}
	if d.IsNegative() {
		return attrs, "shippingFee ne peut pas être négatif"
	}
	attrs.ShippingFee = d
	return attrs, ""
}

func settingsFor(id string, a models.ShippingAttributes) models.ProductShippingSettings {
	return models.ProductShippingSettings{ID: id, HasShippingCharge: a.RequiresPaidShipping, ShippingFee: a.ShippingFee}
}
