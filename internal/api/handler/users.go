package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetCurrentUser returns the caller's own record, or null before the
// first sync.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	user, err := h.Profiles.CurrentUser(callerIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers returns the contact directory, excluding the caller.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Profiles.ListUsers(callerIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Profiles.GetUser(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SyncUser creates the caller's user record on first authenticated
// access, from token claims.
func (h *Handler) SyncUser(c *gin.Context) {
	user, err := h.Resolver.Sync(callerIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type presenceRequest struct {
	IsOnline bool `json:"isOnline"`
}

func (h *Handler) UpdatePresence(c *gin.Context) {
	var req presenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.Profiles.UpdatePresence(callerIdentity(c), req.IsOnline); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type profileRequest struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.Profiles.UpdateProfile(callerIdentity(c), req.Name, req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
