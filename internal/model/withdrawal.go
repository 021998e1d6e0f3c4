package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// CoinsPerUSD is the platform's fixed conversion between coins and dollars
const CoinsPerUSD = 1000

// MethodKind groups withdrawal methods that share a payout form
type MethodKind string

const (
	MethodKindCrypto   MethodKind = "crypto"
	MethodKindPayPal   MethodKind = "paypal"
	MethodKindBank     MethodKind = "bank"
	MethodKindGiftCard MethodKind = "giftcard"
)

// WithdrawalMethod is one row of the rate table
type WithdrawalMethod struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Kind        MethodKind `json:"kind"`
	// Rate is coins per unit of payout currency. Zero for crypto methods
	// until the first successful price fetch.
	Rate               float64 `json:"rate"`
	MinWithdrawCoins   float64 `json:"min_withdraw_coins"`
	FeeCoins           float64 `json:"fee_coins"`
	ServerCostFraction float64 `json:"server_cost_fraction"`
	WaitTime           string  `json:"wait_time"`
	PriceID            string  `json:"price_id,omitempty"`
}

// Quote is the result of a withdrawal calculation. Money fields are kept
// unrounded; Display carries the rounded figures shown to the user.
type Quote struct {
	Method             string       `json:"method"`
	Known              bool         `json:"known"`
	DisplayName        string       `json:"display_name,omitempty"`
	AmountCoins        float64      `json:"amount_coins"`
	Rate               float64      `json:"rate"`
	MinWithdrawCoins   float64      `json:"min_withdraw_coins"`
	FeeCoins           float64      `json:"fee_coins"`
	ServerCostFraction float64      `json:"server_cost_fraction"`
	ServerCost         float64      `json:"server_cost"`
	TotalCost          float64      `json:"total_cost"`
	PayoutAmount       float64      `json:"payout_amount"`
	WaitTime           string       `json:"wait_time,omitempty"`
	Display            QuoteDisplay `json:"display"`
}

// MarshalJSON writes the amount-derived figures as null when they are not
// finite, as for "abc" or "Infinity" amounts
func (q Quote) MarshalJSON() ([]byte, error) {
	type plain Quote
	return json.Marshal(struct {
		plain
		AmountCoins  *float64 `json:"amount_coins"`
		ServerCost   *float64 `json:"server_cost"`
		TotalCost    *float64 `json:"total_cost"`
		PayoutAmount *float64 `json:"payout_amount"`
	}{
		plain:        plain(q),
		AmountCoins:  finite(q.AmountCoins),
		ServerCost:   finite(q.ServerCost),
		TotalCost:    finite(q.TotalCost),
		PayoutAmount: finite(q.PayoutAmount),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type QuoteDisplay struct {
	Amount     string `json:"amount"`
	Fee        string `json:"fee"`
	ServerCost string `json:"server_cost"`
	TotalCost  string `json:"total_cost"`
	Payout     string `json:"payout"`
}

// Payout holds the method-specific destination of a withdrawal. The set of
// implementations is closed.
type Payout interface {
	Kind() MethodKind
	Fields() map[string]string
	isPayout()
}

type CryptoPayout struct {
	Currency string `json:"currency"`
	Address  string `json:"address"`
}

func (CryptoPayout) Kind() MethodKind { return MethodKindCrypto }
func (p CryptoPayout) Fields() map[string]string {
	return map[string]string{"currency": p.Currency, "address": p.Address}
}
func (CryptoPayout) isPayout() {}

type PayPalPayout struct {
	Email string `json:"email"`
}

func (PayPalPayout) Kind() MethodKind { return MethodKindPayPal }
func (p PayPalPayout) Fields() map[string]string {
	return map[string]string{"paypalEmail": p.Email}
}
func (PayPalPayout) isPayout() {}

type BankPayout struct {
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	RoutingNumber string `json:"routing_number"`
	BankName      string `json:"bank_name"`
}

func (BankPayout) Kind() MethodKind { return MethodKindBank }
func (p BankPayout) Fields() map[string]string {
	return map[string]string{
		"accountHolder": p.AccountHolder,
		"accountNumber": p.AccountNumber,
		"routingNumber": p.RoutingNumber,
		"bankName":      p.BankName,
	}
}
func (BankPayout) isPayout() {}

type GiftCardPayout struct {
	Brand   string `json:"brand"`
	Country string `json:"country"`
	Email   string `json:"email"`
}

func (GiftCardPayout) Kind() MethodKind { return MethodKindGiftCard }
func (p GiftCardPayout) Fields() map[string]string {
	return map[string]string{"brand": p.Brand, "country": p.Country, "email": p.Email}
}
func (GiftCardPayout) isPayout() {}

// AmountText is a withdrawal amount as submitted. Clients send either a JSON
// string or a JSON number; both keep their text for ParseAmount.
type AmountText string

func (a *AmountText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number: %w", err)
	}
	*a = AmountText(n)
	return nil
}

// WithdrawRequest is the body accepted by the withdraw endpoints. Amount is
// free text and parsed like a browser's parseFloat.
type WithdrawRequest struct {
	Method string            `json:"method" binding:"required"`
	Amount AmountText        `json:"amount"`
	Payout map[string]string `json:"payout"`
}

// BackendWithdrawal is the payload posted to POST /wallet/withdraw
type BackendWithdrawal struct {
	Amount         float64           `json:"amount"`
	Method         string            `json:"method"`
	Fee            float64           `json:"fee"`
	ServerCost     float64           `json:"serverCost"`
	TotalCost      float64           `json:"totalCost"`
	Rate           float64           `json:"rate"`
	ExtraFormData  map[string]string `json:"extraFormData"`
	UserID         string            `json:"userId,omitempty"`
	Username       string            `json:"username,omitempty"`
	Email          string            `json:"email,omitempty"`
	FirstName      string            `json:"firstName,omitempty"`
	LastName       string            `json:"lastName,omitempty"`
	IdempotencyKey string            `json:"idempotencyKey,omitempty"`
}

// WithdrawalResponse represents the response for a withdrawal request
type WithdrawalResponse struct {
	Quote   Quote  `json:"quote"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
	Status  string `json:"status,omitempty"`
}

// BackendWithdrawalResult is the backend's answer to POST /wallet/withdraw
type BackendWithdrawalResult struct {
	ID      string `json:"_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
