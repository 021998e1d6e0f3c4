package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloutcoin/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreds struct {
	token       string
	err         error
	invalidated int
}

func (f *fakeCreds) Token(context.Context) (string, error) { return f.token, f.err }
func (f *fakeCreds) Invalidate(context.Context) error {
	f.invalidated++
	return nil
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", 5*time.Second, zerolog.Nop())
}

func TestGetWalletSendsBearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/wallet", r.URL.Path)
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		w.Write([]byte(`{"balance": 1234.5}`))
	})

	wallet, err := c.GetWallet(context.Background(), &fakeCreds{token: "abc"})
	require.NoError(t, err)
	assert.Equal(t, 1234.5, wallet.Balance)
}

func TestUnauthorizedInvalidatesCredentials(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		creds := &fakeCreds{token: "abc"}
		_, err := c.GetProfile(context.Background(), creds)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, 1, creds.invalidated)
	}
}

func TestMissingTokenSkipsRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.GetWallet(context.Background(), &fakeCreds{err: errors.New("invalidated")})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, called)
}

func TestAPIErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"message":"Insufficient balance"}`, "Insufficient balance"},
		{`{"error":"Recipient not found"}`, "Recipient not found"},
		{`{"message":"  "}`, FallbackMessage},
		{`<html>oops</html>`, FallbackMessage},
		{``, FallbackMessage},
	}
	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(tt.body))
		})

		_, err := c.SendCoins(context.Background(), &fakeCreds{token: "t"}, model.SendCoinsRequest{Recipient: "bob", Amount: 5})
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr), tt.body)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Equal(t, tt.want, Message(err), tt.body)
	}

	assert.Equal(t, FallbackMessage, Message(errors.New("dial tcp: refused")))
}

func TestWithdrawPostsPayload(t *testing.T) {
	var got model.BackendWithdrawal
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/wallet/withdraw", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"_id":"wd_9","status":"pending"}`))
	})

	res, err := c.Withdraw(context.Background(), &fakeCreds{token: "t"}, model.BackendWithdrawal{
		Amount:        30000,
		Method:        "USD",
		TotalCost:     32000,
		ExtraFormData: map[string]string{"paypalEmail": "a@b.co"},
	})
	require.NoError(t, err)
	assert.Equal(t, "wd_9", res.ID)
	assert.Equal(t, 32000.0, got.TotalCost)
	assert.Equal(t, "a@b.co", got.ExtraFormData["paypalEmail"])
}

func TestReceiveHistoryPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/transactions/recieveHistory", r.URL.Path)
		w.Write([]byte(`[{"_id":"t1","amount":10,"createdAt":"2024-01-02T03:04:05Z"}]`))
	})

	txs, err := c.ReceiveHistory(context.Background(), BearerToken("t"))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, 10.0, txs[0].Amount)
}

func TestCancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetWallet(ctx, BearerToken("t"))
	assert.ErrorIs(t, err, context.Canceled)
}
