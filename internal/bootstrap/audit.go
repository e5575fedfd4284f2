package bootstrap

import (
	"cedra_shipping/internal/config"
	"cedra_shipping/internal/database"
	"cedra_shipping/internal/logger"
	"cedra_shipping/internal/utils"
)

// AuditSink écrit dans Scylla si un keyspace d'audit est configuré, sinon dans les logs
func AuditSink(cfg *config.Config, log *logger.Logger) (utils.AuditSink, func()) {
	if len(cfg.ScyllaHosts) == 0 || cfg.AuditKeyspace == "" {
		return utils.NewLogAuditSink(log), func() {}
	}
	session, err := database.ConnectScylla(database.ScyllaConfig(cfg, cfg.AuditKeyspace), log)
	if err != nil {
		log.Warn("⚠️ Audit Scylla indisponible, repli sur les logs", "error", err)
		return utils.NewLogAuditSink(log), func() {}
	}
	return utils.NewScyllaAuditSink(session), session.Close
}
