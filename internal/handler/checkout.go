package handler

import (
	"strconv"

	"cloutcoin/internal/checkout"
	"cloutcoin/internal/model"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CoinPackages(c *gin.Context) {
	ok(c, checkout.Packages())
}

// CheckoutRoute maps a funding selection to its checkout target. Unsupported
// rails are a successful answer with Supported=false.
func (h *Handler) CheckoutRoute(c *gin.Context) {
	var sel model.FundingSelection
	if err := c.ShouldBindJSON(&sel); err != nil {
		badRequest(c, invalidBodyText)
		return
	}

	target, err := checkout.Route(sel)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, target)
}

// CryptoQuote handles GET /checkout/crypto/quote?currency=BTC&amount=1000
func (h *Handler) CryptoQuote(c *gin.Context) {
	currency := c.Query("currency")
	if currency == "" {
		badRequest(c, "currency is required")
		return
	}
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil {
		h.fail(c, checkout.ErrInvalidAmount)
		return
	}

	quote, err := h.checkout.CryptoQuote(c.Request.Context(), currency, amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, quote)
}

func (h *Handler) CryptoOrder(c *gin.Context) {
	var req model.CryptoOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, invalidBodyText)
		return
	}

	res, err := h.checkout.PlaceCryptoOrder(c.Request.Context(), currentSession(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, res)
}

func (h *Handler) StripeCheckout(c *gin.Context) {
	var req model.StripeCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, invalidBodyText)
		return
	}

	res, err := h.checkout.StartStripeCheckout(c.Request.Context(), currentSession(c), req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, res)
}
