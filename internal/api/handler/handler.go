// Package handler exposes the operation catalog over HTTP and upgrades
// subscription sockets. Handlers stay thin: bind input, call a service,
// map the typed failure onto a status code.
package handler

import (
	"log"
	"net/http"

	"chatterbox/backend/internal/apperr"
	"chatterbox/backend/internal/chat"
	"chatterbox/backend/internal/chathub"
	"chatterbox/backend/internal/identity"
	"chatterbox/backend/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Handler holds every service a route may need.
type Handler struct {
	Resolver  *identity.Resolver
	Profiles  *identity.Profiles
	Directory *chat.Directory
	Ledger    *chat.Ledger
	Typing    *chat.Typing
	Projector *chat.Projector
	Hub       *chathub.Hub
	Metrics   *metrics.Collector
	JWTSecret []byte
}

func NewHandler(
	resolver *identity.Resolver,
	profiles *identity.Profiles,
	directory *chat.Directory,
	ledger *chat.Ledger,
	typing *chat.Typing,
	projector *chat.Projector,
	hub *chathub.Hub,
	collector *metrics.Collector,
	jwtSecret []byte,
) *Handler {
	return &Handler{
		Resolver:  resolver,
		Profiles:  profiles,
		Directory: directory,
		Ledger:    ledger,
		Typing:    typing,
		Projector: projector,
		Hub:       hub,
		Metrics:   collector,
		JWTSecret: jwtSecret,
	}
}

// RegisterRoutes wires the catalog onto the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/webhooks/identity", h.IdentityWebhook)
	r.GET("/ws", h.ServeWebSocket)

	api := r.Group("/api", h.AuthMiddleware())
	{
		api.GET("/users/me", h.GetCurrentUser)
		api.GET("/users", h.ListUsers)
		api.GET("/users/:id", h.GetUser)
		api.POST("/users/sync", h.SyncUser)
		api.POST("/presence", h.UpdatePresence)
		api.PATCH("/profile", h.UpdateProfile)

		api.GET("/conversations", h.ListConversations)
		api.GET("/conversations/direct/:userId", h.GetDirectConversation)
		api.POST("/conversations/direct", h.GetOrCreateDirectConversation)
		api.GET("/conversations/:id/messages", h.ListMessages)
		api.POST("/conversations/:id/messages", h.SendMessage)
		api.POST("/conversations/:id/read", h.MarkRead)
		api.GET("/conversations/:id/typing", h.GetTypingUsers)
		api.POST("/conversations/:id/typing", h.SetTyping)

		api.POST("/groups", h.CreateGroup)
		api.GET("/groups/:id", h.GetGroup)
		api.PATCH("/groups/:id", h.UpdateGroupInfo)
		api.POST("/groups/:id/members", h.AddMember)
		api.DELETE("/groups/:id/members/:userId", h.RemoveMember)

		api.PATCH("/messages/:id", h.EditMessage)
		api.DELETE("/messages/:id", h.DeleteMessage)
		api.POST("/messages/:id/reactions", h.ToggleReaction)
	}
}

// statusForCode maps the failure taxonomy onto HTTP statuses, in one
// place.
func statusForCode(code string) int {
	switch code {
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodeUserNotFound, apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeForbidden:
		return http.StatusForbidden
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeAlreadyMember, apperr.CodeCannotRemoveAdmin, apperr.CodeInvalidState:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := statusForCode(code)
	if status == http.StatusInternalServerError {
		// Untyped errors are store failures; log the detail, hide it
		// from the client.
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
