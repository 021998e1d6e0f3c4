package handler

import (
	"errors"
	"net/http"

	"cloutcoin/internal/model"
	"cloutcoin/internal/withdraw"

	"github.com/gin-gonic/gin"
)

// WithdrawMethods lists the current rate table
func (h *Handler) WithdrawMethods(c *gin.Context) {
	snapshot := h.rates.Snapshot()
	data := gin.H{"methods": snapshot.Methods()}
	if !snapshot.RefreshedAt.IsZero() {
		data["refreshed_at"] = snapshot.RefreshedAt.Unix()
	}
	ok(c, data)
}

// WithdrawQuote prices a withdrawal and reports whether it could be submitted
// against the current balance
func (h *Handler) WithdrawQuote(c *gin.Context) {
	var req model.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, invalidBodyText)
		return
	}

	wallet, err := h.api.GetWallet(c.Request.Context(), currentSession(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	quote, err := h.withdrawals.Check(req, wallet.Balance)
	data := gin.H{
		"quote":    quote,
		"balance":  wallet.Balance,
		"eligible": err == nil,
	}
	if err != nil {
		data["reason"] = err.Error()
	}
	ok(c, data)
}

// Withdraw submits a withdrawal request
func (h *Handler) Withdraw(c *gin.Context) {
	var req model.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, invalidBodyText)
		return
	}

	res, err := h.withdrawals.Submit(c.Request.Context(), currentSession(c), req)
	if err != nil {
		var validation *withdraw.ValidationError
		if !errors.As(err, &validation) {
			h.logger.Warn().Err(err).Str("method", req.Method).Msg("withdrawal failed")
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.Response{Success: true, Data: res})
}
