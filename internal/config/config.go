package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	CatalogShopify = "shopify"
	CatalogScylla  = "scylla"
	CatalogMemory  = "memory"

	FeeModePerProduct  = "per_product"
	FeeModePerLineItem = "per_line_item"
)

type Config struct {
	Env           string
	Port          string
	StoreCurrency string
	FeeMode       string

	QuoteTimeout        time.Duration
	ResolverConcurrency int
	QuoteRateLimit      int

	CatalogDriver     string
	CatalogMaxRetries int
	CatalogTimeout    time.Duration
	CatalogSeedFile   string

	ShopifyShop        string
	ShopifyAccessToken string
	ShopifyAPIVersion  string

	ScyllaHosts    []string
	ScyllaKeyspace string
	ScyllaUser     string
	ScyllaPassword string
	ScyllaCAPath   string
	AuditKeyspace  string

	RedisHost         string
	RedisPassword     string
	AttributeCacheTTL time.Duration

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string
	ElasticIndex    string

	JWTSecret      string
	AllowedOrigins []string

	OtelEndpoint string
}

// Load charge le .env puis lit la configuration depuis l'environnement
func Load() (*Config, error) {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Env:           getEnv("APP_ENV", "dev"),
		Port:          getEnv("PORT", "8080"),
		StoreCurrency: strings.ToUpper(getEnv("STORE_CURRENCY", "USD")),
		FeeMode:       getEnv("SHIPPING_FEE_MODE", FeeModePerProduct),

		QuoteTimeout:        getDuration("QUOTE_TIMEOUT", 8*time.Second),
		ResolverConcurrency: getInt("RESOLVER_CONCURRENCY", 8),
		QuoteRateLimit:      getInt("QUOTE_RATE_LIMIT", 600),

		CatalogDriver:     strings.ToLower(getEnv("CATALOG_DRIVER", CatalogShopify)),
		CatalogMaxRetries: getInt("CATALOG_MAX_RETRIES", 0),
		CatalogTimeout:    getDuration("CATALOG_TIMEOUT", 5*time.Second),
		CatalogSeedFile:   os.Getenv("CATALOG_SEED_FILE"),

		ShopifyShop:        os.Getenv("SHOPIFY_SHOP"),
		ShopifyAccessToken: os.Getenv("SHOPIFY_ACCESS_TOKEN"),
		ShopifyAPIVersion:  getEnv("SHOPIFY_API_VERSION", "2024-10"),

		ScyllaHosts:    splitList(os.Getenv("SCYLLA_HOSTS")),
		ScyllaKeyspace: os.Getenv("SCYLLA_KS_PRODUCTS_KEYSPACE"),
		ScyllaUser:     os.Getenv("SCYLLA_KS_PRODUCTS_ROLE"),
		ScyllaPassword: os.Getenv("SCYLLA_KS_PRODUCTS_PASSWORD"),
		ScyllaCAPath:   scyllaCAPath(),
		AuditKeyspace:  os.Getenv("SCYLLA_KS_AUDIT_KEYSPACE"),

		RedisHost:         os.Getenv("REDIS_HOST"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		AttributeCacheTTL: getDuration("ATTRIBUTE_CACHE_TTL", 5*time.Minute),

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),
		ElasticIndex:    getEnv("ELASTIC_PRODUCTS_INDEX", "products"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		OtelEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
	return cfg, cfg.Validate()
}

// MinJWTSecretLen : taille minimale de la clé HMAC des jetons admin
const MinJWTSecretLen = 32

func (c *Config) Validate() error {
	if len(c.JWTSecret) < MinJWTSecretLen {
		return fmt.Errorf("JWT_SECRET requis (%d octets minimum)", MinJWTSecretLen)
	}
	if len(c.StoreCurrency) != 3 {
		return fmt.Errorf("STORE_CURRENCY invalide: %q", c.StoreCurrency)
	}
	switch c.FeeMode {
	case FeeModePerProduct, FeeModePerLineItem:
	default:
		return fmt.Errorf("SHIPPING_FEE_MODE invalide: %q", c.FeeMode)
	}
	switch c.CatalogDriver {
	case CatalogShopify:
		if c.ShopifyShop == "" || c.ShopifyAccessToken == "" {
			return fmt.Errorf("SHOPIFY_SHOP et SHOPIFY_ACCESS_TOKEN sont requis pour le catalogue shopify")
		}
	case CatalogScylla:
		if len(c.ScyllaHosts) == 0 || c.ScyllaKeyspace == "" {
			return fmt.Errorf("SCYLLA_HOSTS et SCYLLA_KS_PRODUCTS_KEYSPACE sont requis pour le catalogue scylla")
		}
	case CatalogMemory:
	default:
		return fmt.Errorf("CATALOG_DRIVER inconnu: %q", c.CatalogDriver)
	}
	if c.ResolverConcurrency <= 0 {
		c.ResolverConcurrency = 1
	}
	if c.CatalogMaxRetries < 0 {
		c.CatalogMaxRetries = 0
	}
	return nil
}

// le CA n'est pris en compte que si SCYLLA_SSL_ENABLED=true
func scyllaCAPath() string {
	if strings.ToLower(os.Getenv("SCYLLA_SSL_ENABLED")) != "true" {
		return ""
	}
	return os.Getenv("SCYLLA_SSL_CA_PATH")
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
