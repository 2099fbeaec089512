package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListConversations returns the caller's sidebar projection, newest
// activity first.
func (h *Handler) ListConversations(c *gin.Context) {
	views, err := h.Projector.ListConversations(callerIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetDirectConversation returns the unique 1:1 conversation with the
// given user, or null when it does not exist yet.
func (h *Handler) GetDirectConversation(c *gin.Context) {
	conv, err := h.Directory.FindDirect(callerIdentity(c), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

type directRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// GetOrCreateDirectConversation is idempotent: calling it from both
// participants at once still yields exactly one conversation.
func (h *Handler) GetOrCreateDirectConversation(c *gin.Context) {
	var req directRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	conv, err := h.Directory.GetOrCreateDirect(callerIdentity(c), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

type createGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MemberIDs   []string `json:"memberIds"`
}

func (h *Handler) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	conv, err := h.Directory.CreateGroup(callerIdentity(c), req.Name, req.Description, req.MemberIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *Handler) GetGroup(c *gin.Context) {
	view, err := h.Projector.GetGroup(callerIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type updateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) UpdateGroupInfo(c *gin.Context) {
	var req updateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	conv, err := h.Directory.UpdateGroupInfo(callerIdentity(c), c.Param("id"), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

type memberRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *Handler) AddMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	if err := h.Directory.AddMember(callerIdentity(c), c.Param("id"), req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) RemoveMember(c *gin.Context) {
	if err := h.Directory.RemoveMember(callerIdentity(c), c.Param("id"), c.Param("userId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type typingRequest struct {
	IsTyping bool `json:"isTyping"`
}

// SetTyping registers a typing pulse. Always answers ok for resolvable
// requests — a failed pulse must never surface as an error to a client
// that is about to send a message.
func (h *Handler) SetTyping(c *gin.Context) {
	var req typingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.Typing.SetTyping(callerIdentity(c), c.Param("id"), req.IsTyping); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) GetTypingUsers(c *gin.Context) {
	rows, err := h.Typing.TypingUsers(callerIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
