package middleware

import (
	"encoding/json"
	"strings"
	"time"

	"invest-backoffice/internal/core/domain"
	"invest-backoffice/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditTopup creates an audit middleware for the manual topup endpoint.
// Transitions carry their own audit entry from the state machine with exact
// amounts; topups are audited here at the HTTP edge instead, where the
// operator identity and target user are both known.
func AuditTopup(auditor ports.AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful writes (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method != "POST" || !strings.HasSuffix(c.Request.URL.Path, "/topup") {
			return
		}

		operatorID, ok := operatorFromContext(c)
		if !ok {
			return
		}
		targetUserID, err := uuid.Parse(c.Param("user_id"))
		if err != nil {
			return
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
			"ip":     c.ClientIP(),
		})

		auditor.Record(c.Request.Context(), &domain.AdminAudit{
			ID:           uuid.New(),
			OperatorID:   operatorID,
			Action:       domain.AuditActionTopup,
			TargetUserID: targetUserID,
			Amount:       topupAmountFromContext(c),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

// topupAmountFromContext reads the credited amount published by the
// topup handler. Zero means the handler never reached the credit.
func topupAmountFromContext(c *gin.Context) int64 {
	v, exists := c.Get(CtxTopupAmount)
	if !exists {
		return 0
	}
	amount, ok := v.(int64)
	if !ok {
		return 0
	}
	return amount
}

func operatorFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(CtxOperatorID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
