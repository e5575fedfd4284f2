package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"cedra_shipping/internal/handlers/admin"
	"cedra_shipping/internal/handlers/carrier"
	"cedra_shipping/internal/logger"
	"cedra_shipping/internal/middleware"
	"cedra_shipping/internal/observability"
	"cedra_shipping/internal/utils"
)

type RouterConfig struct {
	ServiceName    string
	JWTSecret      []byte
	AllowedOrigins []string
	QuoteRateLimit int

	Redis   *redis.Client
	Metrics *observability.Metrics
	Auditor *utils.Auditor
	Log     *logger.Logger

	Rates    *carrier.RatesHandler
	Settings *admin.ShippingSettingsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.ServiceName),
		middleware.RequestID(),
		middleware.RequestLogger(cfg.Log),
		middleware.HTTPMetrics(cfg.Metrics),
		middleware.CORS(cfg.AllowedOrigins),
	)
	RegisterRoutes(r, cfg)
	return r
}

func RegisterRoutes(r *gin.Engine, cfg RouterConfig) {
	// ===============
	// || Public    ||
	// ===============
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	api.POST("/shipping/rates",
		middleware.QuoteRateLimit(cfg.Redis, cfg.QuoteRateLimit, cfg.Log),
		cfg.Rates.GetRates,
	)

	// ===============
	// || Admin     ||
	// ===============
	adminGroup := api.Group("/admin/shipping")
	adminGroup.Use(middleware.AuthRequired(cfg.JWTSecret, cfg.Log), middleware.RequireAdmin)
	{
		adminGroup.GET("/products", cfg.Settings.ListProducts)
		adminGroup.GET("/products/:id", cfg.Settings.GetProduct)
		adminGroup.POST("/products",
			middleware.AuditCriticalActions(cfg.Auditor, utils.ACTION_SHIPPING_SETTINGS_UPDATE, utils.RESOURCE_PRODUCT),
			cfg.Settings.UpdateProduct,
		)
	}
}
