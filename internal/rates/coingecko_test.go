package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priceServer(t *testing.T, hits *int32, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestUSDPricesParsesAndCaches(t *testing.T) {
	var hits int32
	srv := priceServer(t, &hits, http.StatusOK, `{"bitcoin":{"usd":50000},"ethereum":{"usd":2500.5},"monero":{}}`)
	p := NewPriceIndex(srv.URL, time.Minute, zerolog.Nop())

	prices, err := p.USDPrices(context.Background(), []string{"ethereum", "bitcoin", "monero"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"bitcoin": 50000, "ethereum": 2500.5}, prices)

	_, err = p.USDPrices(context.Background(), []string{"bitcoin", "monero", "ethereum"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestUSDPricesWithoutCache(t *testing.T) {
	var hits int32
	srv := priceServer(t, &hits, http.StatusOK, `{"bitcoin":{"usd":50000}}`)
	p := NewPriceIndex(srv.URL, 0, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := p.USDPrices(context.Background(), []string{"bitcoin"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestUSDPricesHTTPError(t *testing.T) {
	var hits int32
	srv := priceServer(t, &hits, http.StatusTooManyRequests, `rate limited`)
	p := NewPriceIndex(srv.URL, time.Minute, zerolog.Nop())

	_, err := p.USDPrices(context.Background(), []string{"bitcoin"})
	assert.ErrorContains(t, err, "429")
}

func TestUSDPrice(t *testing.T) {
	var hits int32
	srv := priceServer(t, &hits, http.StatusOK, `{"the-open-network":{"usd":5.25}}`)
	p := NewPriceIndex(srv.URL, 0, zerolog.Nop())

	price, err := p.USDPrice(context.Background(), "ton")
	require.NoError(t, err)
	assert.Equal(t, 5.25, price)

	_, err = p.USDPrice(context.Background(), "DOGE")
	assert.ErrorIs(t, err, ErrUnknownCurrency)

	_, err = p.USDPrice(context.Background(), "BTC")
	assert.ErrorIs(t, err, ErrPriceMissing)
}
