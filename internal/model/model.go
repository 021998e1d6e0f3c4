package model

import "time"

// Response is the envelope every HTTP endpoint answers with
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Profile is the backend's user profile as cached in the session store
type Profile struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Country   string `json:"country,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

// Wallet is the balance reported by GET /wallet
type Wallet struct {
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency,omitempty"`
}

// Transaction is one ledger row from the transactions endpoints
type Transaction struct {
	ID        string    `json:"_id"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Amount    float64   `json:"amount"`
	Type      string    `json:"type,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type SendCoinsRequest struct {
	Recipient string  `json:"recipient" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Note      string  `json:"note,omitempty"`
}

// Content is a paywalled item owned by a creator
type Content struct {
	ID          string  `json:"_id,omitempty"`
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description,omitempty"`
	URL         string  `json:"url,omitempty"`
	Price       float64 `json:"price"`
	Type        string  `json:"type,omitempty"`
}

// OperationType represents the type of operation
type OperationType string

const (
	OperationTypeWithdrawal     OperationType = "withdrawal"
	OperationTypeCryptoOrder    OperationType = "crypto_order"
	OperationTypeStripeCheckout OperationType = "stripe_checkout"
	OperationTypeCoinsSent      OperationType = "coins_sent"
)

// Operation is an entry in the local activity log
type Operation struct {
	ID          int64         `json:"id"`
	SessionID   string        `json:"session_id"`
	UserID      string        `json:"user_id"`
	Type        OperationType `json:"type"`
	Amount      float64       `json:"amount"`
	Description string        `json:"description"`
	CreatedAt   int64         `json:"created_at"`
	Extra       interface{}   `json:"extra,omitempty"`
}

// OperationHistory represents a list of operations with pagination info
type OperationHistory struct {
	Operations []Operation `json:"operations"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
}
