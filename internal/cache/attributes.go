package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"cedra_shipping/internal/catalog"
	"cedra_shipping/internal/logger"
)

const AttributeCacheTTL = 5 * time.Minute

// AttributeCache met en cache Redis la lecture des métachamps d'un produit.
// Le listing n'est pas caché ; une écriture réussie invalide les produits touchés.
type AttributeCache struct {
	next catalog.Catalog
	rdb  *redis.Client
	ttl  time.Duration
	log  *logger.Logger
}

func NewAttributeCache(next catalog.Catalog, rdb *redis.Client, ttl time.Duration, log *logger.Logger) *AttributeCache {
	if ttl <= 0 {
		ttl = AttributeCacheTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AttributeCache{next: next, rdb: rdb, ttl: ttl, log: log}
}

func metafieldsKey(namespace, productID string) string {
	return "shipping_metafields:" + namespace + ":" + productID
}

func (c *AttributeCache) NormalizeID(productID string) string {
	return c.next.NormalizeID(productID)
}

// Les clés utilisent l'identifiant normalisé : lecture et invalidation
// tombent sur la même entrée quelle que soit la forme reçue.
func (c *AttributeCache) ProductMetafields(ctx context.Context, productID, namespace string) ([]catalog.Metafield, error) {
	productID = c.NormalizeID(productID)
	key := metafieldsKey(namespace, productID)

	// 1. Essayer le cache Redis
	data, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		var fields []catalog.Metafield
		if json.Unmarshal([]byte(data), &fields) == nil {
			return fields, nil
		}
	} else if err != redis.Nil {
		c.log.Warn("⚠️ Lecture cache Redis impossible", "key", key, "error", err)
	}

	// 2. Catalogue
	fields, err := c.next.ProductMetafields(ctx, productID, namespace)
	if err != nil {
		return nil, err
	}

	// 3. Mettre en cache
	if jsonData, err := json.Marshal(fields); err == nil {
		if err := c.rdb.Set(ctx, key, jsonData, c.ttl).Err(); err != nil {
			c.log.Warn("⚠️ Écriture cache Redis impossible", "key", key, "error", err)
		}
	}
	return fields, nil
}

func (c *AttributeCache) ListProducts(ctx context.Context, namespace string, first int, after string) (*catalog.ProductPage, error) {
	return c.next.ListProducts(ctx, namespace, first, after)
}

func (c *AttributeCache) SetMetafields(ctx context.Context, inputs []catalog.MetafieldInput) ([]catalog.UserError, error) {
	userErrs, err := c.next.SetMetafields(ctx, inputs)
	if err != nil || len(userErrs) > 0 {
		return userErrs, err
	}
	c.Invalidate(ctx, inputs)
	return nil, nil
}

// Invalidate supprime les entrées des produits concernés par l'écriture
func (c *AttributeCache) Invalidate(ctx context.Context, inputs []catalog.MetafieldInput) {
	seen := make(map[string]struct{})
	var keys []string
	for _, in := range inputs {
		key := metafieldsKey(in.Namespace, c.NormalizeID(in.OwnerID))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Error("❌ Invalidation cache Redis échouée", "keys", keys, "error", err)
	}
}
