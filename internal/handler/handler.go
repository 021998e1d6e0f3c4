package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"cloutcoin/internal/backend"
	"cloutcoin/internal/checkout"
	"cloutcoin/internal/conversation"
	"cloutcoin/internal/database"
	"cloutcoin/internal/model"
	"cloutcoin/internal/rates"
	"cloutcoin/internal/session"
	"cloutcoin/internal/withdraw"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SessionHeader carries the session id returned by POST /session
const SessionHeader = "X-Session-ID"

const (
	loginPath       = "/login"
	sessionKey      = "session"
	sessionExpired  = "Your session has expired. Please log in again."
	invalidBodyText = "invalid request body"
)

// Handler manages HTTP request handling for the wallet gateway
type Handler struct {
	db            *database.Database
	sessions      *session.Service
	api           *backend.Client
	rates         *rates.Table
	withdrawals   *withdraw.Submitter
	checkout      *checkout.Service
	messenger     *conversation.Messenger
	redirectDelay time.Duration
	logger        zerolog.Logger
}

// Deps are the services a Handler serves
type Deps struct {
	DB            *database.Database
	Sessions      *session.Service
	API           *backend.Client
	Rates         *rates.Table
	Withdrawals   *withdraw.Submitter
	Checkout      *checkout.Service
	Messenger     *conversation.Messenger
	RedirectDelay time.Duration
	Logger        zerolog.Logger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		db:            d.DB,
		sessions:      d.Sessions,
		api:           d.API,
		rates:         d.Rates,
		withdrawals:   d.Withdrawals,
		checkout:      d.Checkout,
		messenger:     d.Messenger,
		redirectDelay: d.RedirectDelay,
		logger:        d.Logger.With().Str("component", "handler").Logger(),
	}
}

// Routes registers the API on router
func (h *Handler) Routes(router *gin.Engine) {
	router.GET("/api/health", h.Health)

	v1 := router.Group("/api/v1")
	v1.POST("/session", h.OpenSession)

	authed := v1.Group("", h.RequireSession())
	{
		authed.DELETE("/session", h.CloseSession)

		authed.GET("/profile", h.GetProfile)
		authed.PUT("/profile", h.UpdateProfile)
		authed.GET("/wallet", h.GetWallet)

		wd := authed.Group("/withdraw")
		{
			wd.GET("/methods", h.WithdrawMethods)
			wd.POST("/quote", h.WithdrawQuote)
			wd.POST("", h.Withdraw)
		}

		co := authed.Group("/checkout")
		{
			co.GET("/packages", h.CoinPackages)
			co.POST("/route", h.CheckoutRoute)
			co.GET("/crypto/quote", h.CryptoQuote)
			co.POST("/crypto/order", h.CryptoOrder)
			co.POST("/stripe", h.StripeCheckout)
		}

		tx := authed.Group("/transactions")
		{
			tx.GET("/history", h.TransactionHistory)
			tx.GET("/received", h.ReceivedTransactions)
			tx.POST("/send", h.SendCoins)
		}

		authed.GET("/content", h.ListContent)
		authed.POST("/content", h.AddContent)
		authed.DELETE("/content/:id", h.DeleteContent)

		msg := authed.Group("/messages")
		{
			msg.GET("/conversations", h.Conversations)
			msg.GET("/conversations/:user", h.Conversation)
			msg.POST("/send", h.SendMessage)
			msg.POST("/block", h.BlockUser)
		}

		authed.GET("/operations", h.GetUserOperations)
	}
}

func (h *Handler) Health(c *gin.Context) {
	snapshot := h.rates.Snapshot()
	data := gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}
	if !snapshot.RefreshedAt.IsZero() {
		data["rates_refreshed_at"] = snapshot.RefreshedAt.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, data)
}

// RequireSession loads the session named by the X-Session-ID header
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := h.sessions.Load(c.Request.Context(), strings.TrimSpace(c.GetHeader(SessionHeader)))
		if err != nil {
			h.fail(c, err)
			c.Abort()
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func (h *Handler) unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, model.Response{
		Success: false,
		Error:   sessionExpired,
		Data: gin.H{
			"redirect":          loginPath,
			"redirect_after_ms": h.redirectDelay.Milliseconds(),
		},
	})
}

// fail maps err to a status and envelope. Backend failures surface the
// backend's own message or the generic fallback.
func (h *Handler) fail(c *gin.Context, err error) {
	var validation *withdraw.ValidationError
	var apiErr *backend.APIError

	switch {
	case errors.Is(err, backend.ErrUnauthorized),
		errors.Is(err, session.ErrNoSession),
		errors.Is(err, session.ErrInvalidated),
		errors.Is(err, session.ErrTokenExpired):
		h.unauthorized(c)

	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, model.Response{
			Success: false,
			Error:   validation.Error(),
			Data:    gin.H{"quote": validation.Quote},
		})

	case errors.Is(err, withdraw.ErrSubmissionInFlight),
		errors.Is(err, conversation.ErrPendingResponse),
		errors.Is(err, conversation.ErrBlocked):
		c.JSON(http.StatusConflict, model.Response{Success: false, Error: err.Error()})

	case errors.Is(err, session.ErrEmptyToken),
		errors.Is(err, checkout.ErrInvalidAmount),
		errors.Is(err, checkout.ErrUnknownPackage),
		errors.Is(err, conversation.ErrEmptyMessage),
		errors.Is(err, rates.ErrUnknownCurrency):
		c.JSON(http.StatusBadRequest, model.Response{Success: false, Error: err.Error()})

	case errors.As(err, &apiErr):
		status := http.StatusBadGateway
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		}
		c.JSON(status, model.Response{Success: false, Error: backend.Message(err)})

	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(499)

	default:
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusBadGateway, model.Response{Success: false, Error: backend.FallbackMessage})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, model.Response{Success: false, Error: msg})
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, model.Response{Success: true, Data: data})
}

// OpenSession exchanges a bearer token for a session id
func (h *Handler) OpenSession(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, invalidBodyText)
			return
		}
	}
	if req.Token == "" {
		req.Token = c.GetHeader("Authorization")
	}

	sess, err := h.sessions.Open(c.Request.Context(), req.Token)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.Response{
		Success: true,
		Data: gin.H{
			"session_id": sess.ID(),
			"profile":    sess.Profile(),
		},
	})
}

// CloseSession logs out
func (h *Handler) CloseSession(c *gin.Context) {
	if err := currentSession(c).Invalidate(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"redirect": loginPath})
}

// GetProfile fetches the profile from the backend and refreshes the cached copy
func (h *Handler) GetProfile(c *gin.Context) {
	sess := currentSession(c)
	ctx := c.Request.Context()

	profile, err := h.api.GetProfile(ctx, sess)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.sessions.UpdateProfile(ctx, sess, *profile); err != nil {
		h.logger.Warn().Err(err).Msg("failed to cache profile")
	}
	ok(c, profile)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		badRequest(c, invalidBodyText)
		return
	}

	sess := currentSession(c)
	ctx := c.Request.Context()

	profile, err := h.api.UpdateProfile(ctx, sess, fields)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.sessions.UpdateProfile(ctx, sess, *profile); err != nil {
		h.logger.Warn().Err(err).Msg("failed to cache profile")
	}
	ok(c, profile)
}

func (h *Handler) GetWallet(c *gin.Context) {
	wallet, err := h.api.GetWallet(c.Request.Context(), currentSession(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, wallet)
}
