// Package backend is the HTTP client for the Clout Coin REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloutcoin/internal/metrics"

	"github.com/rs/zerolog"
)

// FallbackMessage is shown when the backend gives no usable error text
const FallbackMessage = "Something went wrong. Please try again."

// ErrUnauthorized is returned for 401/403 answers and for sessions that are
// already invalid. The session has been invalidated when it is returned.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-authorization failure reported by the backend
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
}

// Credentials supplies the bearer token and is told when the backend rejects
// it.
type Credentials interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context) error
}

// BearerToken is a Credentials for a token that has no session yet
type BearerToken string

func (t BearerToken) Token(context.Context) (string, error) { return string(t), nil }
func (t BearerToken) Invalidate(context.Context) error      { return nil }

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New builds a client. Requests are never retried.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 20,
			},
		},
		logger: logger.With().Str("component", "backend_client").Logger(),
	}
}

func (c *Client) do(ctx context.Context, creds Credentials, method, path string, in, out interface{}) error {
	token, err := creds.Token(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Str("path", path).Msg("no usable token, skipping request")
		return ErrUnauthorized
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request body failed: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BackendRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	metrics.BackendRequests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body failed: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.logger.Warn().Str("path", path).Int("status", resp.StatusCode).Msg("backend rejected credentials, invalidating session")
		if err := creds.Invalidate(ctx); err != nil {
			c.logger.Error().Err(err).Msg("failed to invalidate session")
		}
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(respBody)}
		c.logger.Warn().Str("path", path).Int("status", resp.StatusCode).Str("message", apiErr.Message).Msg("backend request failed")
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response from %s failed: %w", path, err)
	}
	return nil
}

// errorMessage extracts the backend's message text, or FallbackMessage
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Msg     string `json:"msg"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, m := range []string{payload.Message, payload.Error, payload.Msg} {
			if strings.TrimSpace(m) != "" {
				return m
			}
		}
	}
	return FallbackMessage
}

// Message returns the text to show a user for err
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return FallbackMessage
}
