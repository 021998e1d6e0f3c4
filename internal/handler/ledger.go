package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"cloutcoin/internal/model"

	"github.com/gin-gonic/gin"
)

func (h *Handler) TransactionHistory(c *gin.Context) {
	txs, err := h.api.TransactionHistory(c.Request.Context(), currentSession(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, txs)
}

func (h *Handler) ReceivedTransactions(c *gin.Context) {
	txs, err := h.api.ReceiveHistory(c.Request.Context(), currentSession(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, txs)
}

// SendCoins transfers coins to another user and logs the transfer locally
func (h *Handler) SendCoins(c *gin.Context) {
	var req model.SendCoinsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, invalidBodyText)
		return
	}

	sess := currentSession(c)
	ctx := c.Request.Context()

	res, err := h.api.SendCoins(ctx, sess, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	op := &model.Operation{
		SessionID:   sess.ID(),
		UserID:      sess.Profile().ID,
		Type:        model.OperationTypeCoinsSent,
		Amount:      req.Amount,
		Description: fmt.Sprintf("Sent coins to %s", req.Recipient),
		Extra:       map[string]interface{}{"recipient": req.Recipient, "note": req.Note},
	}
	if err := h.db.AddOperation(ctx, op); err != nil {
		h.logger.Error().Err(err).Msg("failed to record transfer")
	}

	ok(c, res)
}

func (h *Handler) ListContent(c *gin.Context) {
	items, err := h.api.ListContent(c.Request.Context(), currentSession(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, items)
}

func (h *Handler) AddContent(c *gin.Context) {
	var req model.Content
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, invalidBodyText)
		return
	}
	if req.Price < 0 {
		badRequest(c, "price must not be negative")
		return
	}

	item, err := h.api.AddContent(c.Request.Context(), currentSession(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.Response{Success: true, Data: item})
}

func (h *Handler) DeleteContent(c *gin.Context) {
	id := c.Param("id")
	if err := h.api.DeleteContent(c.Request.Context(), currentSession(c), id); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"id": id})
}

// GetUserOperations returns the local activity log of the session's user
func (h *Handler) GetUserOperations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	sess := currentSession(c)
	userID := sess.Profile().ID
	if userID == "" {
		badRequest(c, "profile not loaded")
		return
	}

	history, err := h.db.GetUserOperations(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get operations")
		c.JSON(http.StatusInternalServerError, model.Response{
			Success: false,
			Error:   "failed to get operations",
		})
		return
	}
	ok(c, history)
}
