package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"cedra_shipping/internal/bootstrap"
	"cedra_shipping/internal/config"
	"cedra_shipping/internal/database"
	"cedra_shipping/internal/handlers/admin"
	"cedra_shipping/internal/handlers/carrier"
	"cedra_shipping/internal/logger"
	"cedra_shipping/internal/observability"
	"cedra_shipping/internal/routes"
	"cedra_shipping/internal/service"
	"cedra_shipping/internal/utils"
)

const serviceName = "cedra-shipping"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration invalide: %v", err)
	}

	logg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("❌ Impossible d'initialiser le logger: %v", err)
	}
	defer logg.Sync()

	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOtel := observability.InitOTel(ctx, logg, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OtelEndpoint,
	})

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	rdb, err := database.ConnectRedis(connectCtx, cfg, logg)
	cancel()
	if err != nil {
		logg.Fatal("❌ Redis", "error", err)
	}

	es, err := database.ConnectElastic(cfg, logg)
	if err != nil {
		// la recherche est optionnelle, le reste du service fonctionne sans
		logg.Warn("⚠️ Elasticsearch indisponible", "error", err)
	}
	var search admin.ProductSearcher
	if es != nil {
		search = service.NewProductSearch(es, cfg.ElasticIndex, logg)
	}

	cat, closeCatalog, err := bootstrap.Catalog(ctx, cfg, rdb, logg)
	if err != nil {
		logg.Fatal("❌ Catalogue", "error", err)
	}
	defer closeCatalog()

	svc, err := bootstrap.NewShipping(cat, cfg)
	if err != nil {
		logg.Fatal("❌ Services de livraison", "error", err)
	}

	sink, closeAudit := bootstrap.AuditSink(cfg, logg)
	defer closeAudit()

	metrics := observability.NewMetrics()
	r := routes.NewRouter(routes.RouterConfig{
		ServiceName:    serviceName,
		JWTSecret:      []byte(cfg.JWTSecret),
		AllowedOrigins: cfg.AllowedOrigins,
		QuoteRateLimit: cfg.QuoteRateLimit,
		Redis:          rdb,
		Metrics:        metrics,
		Auditor:        utils.NewAuditor(sink, logg),
		Log:            logg,
		Rates:          carrier.NewRatesHandler(svc.Quotes, cfg.QuoteTimeout, metrics, logg),
		Settings:       admin.NewShippingSettingsHandler(svc.Resolver, svc.Editor, search, metrics, logg),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logg.Info("🚀 Serveur de livraison lancé",
			"port", cfg.Port,
			"catalog", cfg.CatalogDriver,
			"currency", cfg.StoreCurrency,
			"fee_mode", cfg.FeeMode,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("❌ Serveur HTTP", "error", err)
		}
	}()

	<-ctx.Done()
	logg.Info("🛑 Arrêt demandé, fin des requêtes en cours")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("❌ Arrêt du serveur", "error", err)
	}
	if err := shutdownOtel(shutdownCtx); err != nil {
		logg.Warn("⚠️ Arrêt otel", "error", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	logg.Info("✅ Serveur arrêté")
}
