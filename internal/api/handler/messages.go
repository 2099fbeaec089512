package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListMessages(c *gin.Context) {
	views, err := h.Ledger.List(callerIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

type sendMessageRequest struct {
	Text    string  `json:"text"`
	ReplyTo *string `json:"replyTo"`
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	msg, err := h.Ledger.Send(callerIdentity(c), c.Param("id"), req.Text, req.ReplyTo)
	if err != nil {
		respondError(c, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordMessageSent()
	}
	c.JSON(http.StatusCreated, msg)
}

type editMessageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) EditMessage(c *gin.Context) {
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	msg, err := h.Ledger.Edit(callerIdentity(c), c.Param("id"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *Handler) DeleteMessage(c *gin.Context) {
	if err := h.Ledger.Delete(callerIdentity(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type reactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

func (h *Handler) ToggleReaction(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emoji is required"})
		return
	}
	added, err := h.Ledger.ToggleReaction(callerIdentity(c), c.Param("id"), req.Emoji)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

func (h *Handler) MarkRead(c *gin.Context) {
	if err := h.Ledger.MarkRead(callerIdentity(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
