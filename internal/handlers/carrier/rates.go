package carrier

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cedra_shipping/internal/logger"
	"cedra_shipping/internal/models"
	"cedra_shipping/internal/observability"
	"cedra_shipping/internal/shipping"
)

type RatesHandler struct {
	quotes  *shipping.QuoteService
	timeout time.Duration
	metrics *observability.Metrics
	log     *logger.Logger
}

func NewRatesHandler(quotes *shipping.QuoteService, timeout time.Duration, metrics *observability.Metrics, log *logger.Logger) *RatesHandler {
	return &RatesHandler{quotes: quotes, timeout: timeout, metrics: metrics, log: log}
}

// GetRates calcule l'unique tarif de livraison d'un panier.
// POST /api/shipping/rates
func (h *RatesHandler) GetRates(c *gin.Context) {
	var req models.CartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.QuoteFailed("malformed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corps de requête invalide: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	quote, err := h.quotes.Quote(ctx, req.LineItems())
	switch {
	case err == nil:
	case errors.Is(err, shipping.ErrInputMalformed):
		h.metrics.QuoteFailed("malformed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, shipping.ErrCatalogUnavailable):
		h.metrics.QuoteFailed("catalog_unavailable")
		h.log.Warn("❌ Devis impossible, catalogue indisponible", "error", err, "request_id", c.GetString("request_id"))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Catalogue indisponible, réessayez plus tard"})
		return
	default:
		h.metrics.QuoteFailed("internal")
		h.log.Error("❌ Erreur calcul devis", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur calcul du tarif"})
		return
	}

	rate := quote.Rates[0]
	h.metrics.QuoteServed(string(rate.ServiceCode))
	h.log.Debug("📦 Devis calculé",
		"service_code", rate.ServiceCode,
		"total_price", rate.TotalPrice,
		"items", len(req.LineItems()),
	)
	c.JSON(http.StatusOK, quote)
}
