package handler

import (
	"cloutcoin/internal/model"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Conversations(c *gin.Context) {
	convs, err := h.api.Conversations(c.Request.Context(), currentSession(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, convs)
}

// Conversation returns one conversation and whether the viewer may write
func (h *Handler) Conversation(c *gin.Context) {
	conv, gate, err := h.messenger.Load(c.Request.Context(), currentSession(c), c.Param("user"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{
		"conversation": conv,
		"can_send":     gate.Open(),
	})
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, invalidBodyText)
		return
	}

	msg, err := h.messenger.Send(c.Request.Context(), currentSession(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, msg)
}

func (h *Handler) BlockUser(c *gin.Context) {
	var req model.BlockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, invalidBodyText)
		return
	}

	if err := h.api.BlockUser(c.Request.Context(), currentSession(c), req.User); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"blocked": req.User})
}
