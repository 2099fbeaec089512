package handler

import (
	"net/http"

	"chatterbox/backend/internal/chathub"
	"chatterbox/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Tighten for production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection into a push subscription. The
// socket carries invalidation events only; the client refetches through
// the HTTP API when poked.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	id := h.callerIdentityFromRequest(c)
	if id == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token missing or invalid"})
		return
	}
	user, err := h.Resolver.Resolve(id)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade connection"})
		return
	}

	client := &chathub.WebSocketClient{
		UserID: user.ID,
		Conn:   conn,
		Hub:    h.Hub,
		Send:   make(chan models.Event, 256),
	}
	h.Hub.RegisterCh <- client
	client.Run()
}
