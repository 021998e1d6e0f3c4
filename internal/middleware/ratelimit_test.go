package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloutcoin/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketRefills(t *testing.T) {
	limiter := NewIPRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})
	now := time.Unix(1000, 0)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("1.2.3.4"))
	assert.True(t, limiter.Allow("1.2.3.4"))
	assert.False(t, limiter.Allow("1.2.3.4"))
	assert.True(t, limiter.Allow("5.6.7.8"))

	now = now.Add(time.Second)
	assert.True(t, limiter.Allow("1.2.3.4"))
	assert.False(t, limiter.Allow("1.2.3.4"))
}

func TestPrune(t *testing.T) {
	limiter := NewIPRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})
	now := time.Unix(1000, 0)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	now = now.Add(time.Hour)
	limiter.Allow("b")

	assert.Equal(t, 1, limiter.Prune(10*time.Minute))
	assert.Len(t, limiter.ips, 1)
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.Use(NewIPRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}).RateLimit())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, first.Code)
	assert.NotEmpty(t, first.Header().Get(RequestIDHeader))

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "too many requests")
}
