package handler

import (
	"net/http"

	"chatterbox/backend/internal/identity"

	"github.com/gin-gonic/gin"
)

// IdentityWebhook consumes the identity provider's event feed:
// user.created and user.updated upsert by external id, user.deleted
// removes the record. Re-delivery is safe because the reaction is an
// idempotent upsert.
func (h *Handler) IdentityWebhook(c *gin.Context) {
	var ev identity.ProviderEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
		return
	}

	if err := h.Resolver.ApplyProviderEvent(ev); err != nil {
		respondError(c, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordWebhookEvent(ev.Type)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
