package bootstrap

import (
	"context"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"cedra_shipping/internal/cache"
	"cedra_shipping/internal/catalog"
	"cedra_shipping/internal/config"
	"cedra_shipping/internal/database"
	"cedra_shipping/internal/logger"
)

// Catalog construit le driver demandé par CATALOG_DRIVER, décoré du cache
// Redis quand un client est fourni. closeFn libère les ressources du driver.
func Catalog(ctx context.Context, cfg *config.Config, rdb *redis.Client, log *logger.Logger) (c catalog.Catalog, closeFn func(), err error) {
	closeFn = func() {}

	switch cfg.CatalogDriver {
	case config.CatalogMemory:
		mem := catalog.NewMemory()
		if cfg.CatalogSeedFile != "" {
			if mem, err = catalog.LoadMemory(cfg.CatalogSeedFile); err != nil {
				return nil, closeFn, err
			}
		}
		log.Info("📦 Catalogue en mémoire", "seed", cfg.CatalogSeedFile)
		c = mem

	case config.CatalogShopify:
		c = catalog.NewShopify(catalog.ShopifyConfig{
			Shop:        cfg.ShopifyShop,
			AccessToken: cfg.ShopifyAccessToken,
			APIVersion:  cfg.ShopifyAPIVersion,
			Timeout:     cfg.CatalogTimeout,
			MaxRetries:  cfg.CatalogMaxRetries,
		})
		log.Info("🛍️ Catalogue Shopify", "shop", cfg.ShopifyShop, "api_version", cfg.ShopifyAPIVersion)

	case config.CatalogScylla:
		var session *gocql.Session
		session, err = database.ConnectScylla(database.ScyllaConfig(cfg, cfg.ScyllaKeyspace), log)
		if err != nil {
			return nil, closeFn, err
		}
		closeFn = session.Close
		c = catalog.NewScylla(session)

	default:
		return nil, closeFn, errors.Errorf("driver de catalogue inconnu: %q", cfg.CatalogDriver)
	}

	if rdb != nil && cfg.AttributeCacheTTL > 0 {
		c = cache.NewAttributeCache(c, rdb, cfg.AttributeCacheTTL, log)
		log.Info("✅ Cache Redis des attributs activé", "ttl", cfg.AttributeCacheTTL.String())
	}
	return c, closeFn, nil
}
