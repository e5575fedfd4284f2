package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"cedra_shipping/internal/logger"
	"cedra_shipping/internal/models"
)

// Actions d'audit
const (
	ACTION_SHIPPING_SETTINGS_UPDATE = "shipping.settings_update"
)

// Ressources d'audit
const (
	RESOURCE_PRODUCT = "product"
)

// AuditSink reçoit les entrées d'audit
type AuditSink interface {
	Record(ctx context.Context, entry models.AuditLog) error
}

// ScyllaAuditSink écrit dans la table audit_logs
type ScyllaAuditSink struct {
	session *gocql.Session
}

func NewScyllaAuditSink(session *gocql.Session) *ScyllaAuditSink {
	return &ScyllaAuditSink{session: session}
}

func (s *ScyllaAuditSink) Record(ctx context.Context, e models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, user_id, user_email, action, resource, resource_id,
			old_value, new_value, ip_address, user_agent, success,
			error_msg, timestamp, request_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	return s.session.Query(query,
		e.ID, e.UserID, e.UserEmail, e.Action,
		e.Resource, e.ResourceID, e.OldValue, e.NewValue,
		e.IPAddress, e.UserAgent, e.Success, e.ErrorMsg,
		e.Timestamp, e.RequestID,
	).WithContext(ctx).Exec()
}

// LogAuditSink écrit les entrées dans le logger (pas de Scylla configuré)
type LogAuditSink struct {
	log *logger.Logger
}

func NewLogAuditSink(log *logger.Logger) *LogAuditSink {
	return &LogAuditSink{log: log}
}

func (s *LogAuditSink) Record(_ context.Context, e models.AuditLog) error {
	s.log.Info("📝 audit",
		"action", e.Action,
		"resource", e.Resource,
		"resource_id", e.ResourceID,
		"user_id", e.UserID,
		"success", e.Success,
		"old_value", e.OldValue,
		"new_value", e.NewValue,
		"error_msg", e.ErrorMsg,
		"request_id", e.RequestID,
	)
	return nil
}

// Auditor construit les entrées depuis la requête et les enregistre en tâche de fond
type Auditor struct {
	sink    AuditSink
	log     *logger.Logger
	timeout time.Duration
}

func NewAuditor(sink AuditSink, log *logger.Logger) *Auditor {
	return &Auditor{sink: sink, log: log, timeout: 5 * time.Second}
}

// LogAction enregistre une action réussie
func (a *Auditor) LogAction(c *gin.Context, action, resource, resourceID string, oldValue, newValue interface{}) {
	a.record(c, NewAuditEntry(c, action, resource, resourceID, oldValue, newValue, true, ""))
}

// LogFailedAction enregistre une action échouée
func (a *Auditor) LogFailedAction(c *gin.Context, action, resource, resourceID, errorMsg string) {
	a.record(c, NewAuditEntry(c, action, resource, resourceID, nil, nil, false, errorMsg))
}

// l'entrée est construite avant le goroutine : le *gin.Context est recyclé après la réponse
func (a *Auditor) record(c *gin.Context, entry models.AuditLog) {
	ctx := context.WithoutCancel(c.Request.Context())
	go func() {
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		if err := a.sink.Record(ctx, entry); err != nil {
			a.log.Error("❌ Erreur enregistrement log audit", "error", err, "action", entry.Action)
		}
	}()
}

// NewAuditEntry remplit une entrée à partir du contexte Gin
func NewAuditEntry(c *gin.Context, action, resource, resourceID string, oldValue, newValue interface{}, success bool, errorMsg string) models.AuditLog {
	return models.AuditLog{
		ID:         uuid.NewString(),
		UserID:     c.GetString("user_id"),
		UserEmail:  c.GetString("email"),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		OldValue:   marshalValue(oldValue),
		NewValue:   marshalValue(newValue),
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Success:    success,
		ErrorMsg:   errorMsg,
		Timestamp:  time.Now().UTC(),
		RequestID:  c.GetString("request_id"),
	}
}

func marshalValue(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
