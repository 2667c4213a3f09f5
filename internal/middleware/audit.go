package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/class-fee-api/internal/models"
	"github.com/noah-isme/class-fee-api/pkg/middleware/requestid"
)

const (
	auditResourceIDKey = "audit_resource_id"
	auditSkipKey       = "audit_skip"
)

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// SetAuditResource names the record a handler just touched.
func SetAuditResource(c *gin.Context, id string) {
	if id != "" {
		c.Set(auditResourceIDKey, id)
	}
}

// SkipAudit marks the request as not worth an audit row, e.g. a replayed
// idempotent result.
func SkipAudit(c *gin.Context) {
	c.Set(auditSkipKey, true)
}

// AuditSkipped reports whether SkipAudit was called for the request.
func AuditSkipped(c *gin.Context) bool {
	return c.GetBool(auditSkipKey)
}

// Audit creates a middleware that records audit logs after successful requests.
func Audit(writer auditWriter, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 || writer == nil || AuditSkipped(c) {
			return
		}

		var userID *string
		if claims := CurrentClaims(c); claims != nil {
			id := claims.UserID()
			userID = &id
		}

		var resourceID *string
		if value, ok := c.Get(auditResourceIDKey); ok {
			if id, ok := value.(string); ok {
				resourceID = &id
			}
		} else if id := c.Param("id"); id != "" {
			resourceID = &id
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		// The request has already been answered.
		ctx := context.WithoutCancel(c.Request.Context())
		err := writer.Create(ctx, &models.AuditLog{
			UserID:     userID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
			RequestID:  requestid.Value(c),
		})
		if err != nil {
			logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
		}
	}
}
