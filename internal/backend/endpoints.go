package backend

import (
	"context"
	"net/http"
	"net/url"

	"cloutcoin/internal/model"
)

func (c *Client) GetProfile(ctx context.Context, creds Credentials) (*model.Profile, error) {
	var p model.Profile
	if err := c.do(ctx, creds, http.MethodGet, "/user/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, creds Credentials, fields map[string]interface{}) (*model.Profile, error) {
	var p model.Profile
	if err := c.do(ctx, creds, http.MethodPut, "/user/profile", fields, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetWallet(ctx context.Context, creds Credentials) (*model.Wallet, error) {
	var w model.Wallet
	if err := c.do(ctx, creds, http.MethodGet, "/wallet", nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// StripeReload asks the backend for a card checkout session. The payload is
// passed through untouched.
func (c *Client) StripeReload(ctx context.Context, creds Credentials, amount float64) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	in := map[string]float64{"amount": amount}
	if err := c.do(ctx, creds, http.MethodPost, "/wallet/stripe-reload", in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CryptoReload(ctx context.Context, creds Credentials, order model.BackendCryptoReload) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if err := c.do(ctx, creds, http.MethodPost, "/wallet/crypto-reload", order, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Withdraw(ctx context.Context, creds Credentials, w model.BackendWithdrawal) (*model.BackendWithdrawalResult, error) {
	var res model.BackendWithdrawalResult
	if err := c.do(ctx, creds, http.MethodPost, "/wallet/withdraw", w, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) TransactionHistory(ctx context.Context, creds Credentials) ([]model.Transaction, error) {
	var out []model.Transaction
	if err := c.do(ctx, creds, http.MethodGet, "/transactions/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReceiveHistory lists incoming transfers. The path spelling is the backend's.
func (c *Client) ReceiveHistory(ctx context.Context, creds Credentials) ([]model.Transaction, error) {
	var out []model.Transaction
	if err := c.do(ctx, creds, http.MethodGet, "/transactions/recieveHistory", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendCoins(ctx context.Context, creds Credentials, req model.SendCoinsRequest) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if err := c.do(ctx, creds, http.MethodPost, "/transactions/send", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListContent(ctx context.Context, creds Credentials) ([]model.Content, error) {
	var out []model.Content
	if err := c.do(ctx, creds, http.MethodGet, "/user-content/get", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddContent(ctx context.Context, creds Credentials, content model.Content) (*model.Content, error) {
	var out model.Content
	if err := c.do(ctx, creds, http.MethodPost, "/public-content/add", content, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteContent(ctx context.Context, creds Credentials, id string) error {
	return c.do(ctx, creds, http.MethodDelete, "/user-content/delete/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Conversations(ctx context.Context, creds Credentials) ([]model.Conversation, error) {
	var out []model.Conversation
	if err := c.do(ctx, creds, http.MethodGet, "/messages/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Conversation(ctx context.Context, creds Credentials, user string) (*model.Conversation, error) {
	var out model.Conversation
	if err := c.do(ctx, creds, http.MethodGet, "/messages/conversation/"+url.PathEscape(user), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendMessage(ctx context.Context, creds Credentials, req model.SendMessageRequest) (*model.Message, error) {
	var out model.Message
	if err := c.do(ctx, creds, http.MethodPost, "/messages/send", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BlockUser(ctx context.Context, creds Credentials, user string) error {
	return c.do(ctx, creds, http.MethodPost, "/messages/block", model.BlockUserRequest{User: user}, nil)
}
