package database

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"

	"cedra_shipping/internal/config"
	"cedra_shipping/internal/logger"
)

// --- Configuration ScyllaDB ---
type ScyllaKeyspaceConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	CACertPath  string
	Timeout     time.Duration
	NumConns    int
	Consistency gocql.Consistency
}

// ScyllaConfig dérive la configuration d'un keyspace depuis la config globale
func ScyllaConfig(cfg *config.Config, keyspace string) ScyllaKeyspaceConfig {
	return ScyllaKeyspaceConfig{
		Hosts:       cfg.ScyllaHosts,
		Keyspace:    keyspace,
		Username:    cfg.ScyllaUser,
		Password:    cfg.ScyllaPassword,
		CACertPath:  cfg.ScyllaCAPath,
		Timeout:     5 * time.Second,
		NumConns:    20,
		Consistency: gocql.Quorum,
	}
}

// createScyllaCluster crée une configuration de cluster pour un keyspace
func createScyllaCluster(c ScyllaKeyspaceConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(c.Hosts...)
	cluster.Keyspace = c.Keyspace
	cluster.Consistency = c.Consistency
	cluster.Timeout = c.Timeout
	cluster.NumConns = c.NumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	if c.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: c.Username,
			Password: c.Password,
		}
	}
	if c.CACertPath != "" {
		cluster.SslOpts = &gocql.SslOptions{CaPath: c.CACertPath, EnableHostVerification: true}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

// ConnectScylla ouvre une session sur le keyspace demandé
func ConnectScylla(c ScyllaKeyspaceConfig, log *logger.Logger) (*gocql.Session, error) {
	if len(c.Hosts) == 0 || c.Keyspace == "" {
		return nil, fmt.Errorf("scylla: hôtes ou keyspace manquants")
	}
	session, err := createScyllaCluster(c).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %w", c.Keyspace, err)
	}
	log.Info("✅ Nouvelle session ScyllaDB", "keyspace", c.Keyspace, "user", c.Username)
	return session, nil
}

// ConnectRedis renvoie nil, nil si REDIS_HOST n'est pas défini
func ConnectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) (*redis.Client, error) {
	if cfg.RedisHost == "" {
		log.Warn("⚠️ REDIS_HOST absent : cache et rate limit désactivés")
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost,
		Password:     cfg.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("erreur connexion Redis: %w", err)
	}
	log.Info("✅ Connecté à Redis", "addr", cfg.RedisHost)
	return rdb, nil
}

// ConnectElastic renvoie nil, nil si ELASTIC_URL n'est pas défini
func ConnectElastic(cfg *config.Config, log *logger.Logger) (*elasticsearch.Client, error) {
	if cfg.ElasticURL == "" {
		log.Warn("⚠️ ELASTIC_URL absent : recherche produit désactivée")
		return nil, nil
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
		Username:  cfg.ElasticUser,
		Password:  cfg.ElasticPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("erreur création client Elasticsearch: %w", err)
	}
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("erreur connexion Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch: %s", res.String())
	}
	log.Info("✅ Connecté à Elasticsearch", "url", cfg.ElasticURL)
	return client, nil
}
