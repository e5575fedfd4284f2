package middleware

import (
	"github.com/gin-gonic/gin"

	"cedra_shipping/internal/utils"
)

// Clés que les handlers posent pour enrichir l'audit
const (
	AuditResourceID = "audit_resource_id"
	AuditOldValue   = "audit_old_value"
	AuditNewValue   = "audit_new_value"
	AuditErrorMsg   = "audit_error_msg"
)

// AuditCriticalActions audite l'action après traitement, réussie ou non.
// L'identifiant vient du paramètre :id ou de ce que le handler a posé.
func AuditCriticalActions(auditor *utils.Auditor, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		resourceID := c.GetString(AuditResourceID)
		if resourceID == "" {
			resourceID = c.Param("id")
		}

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			oldValue, _ := c.Get(AuditOldValue)
			newValue, _ := c.Get(AuditNewValue)
			auditor.LogAction(c, action, resource, resourceID, oldValue, newValue)
			return
		}
		msg := c.GetString(AuditErrorMsg)
		if msg == "" {
			msg = "Action échouée"
		}
		auditor.LogFailedAction(c, action, resource, resourceID, msg)
	}
}
