package model

// FundingMethod is a payment rail for reloading the wallet
type FundingMethod string

const (
	FundingStripe   FundingMethod = "stripe"
	FundingCrypto   FundingMethod = "crypto"
	FundingSendwave FundingMethod = "sendwave"
	FundingShopify  FundingMethod = "shopify"
)

// CoinPackage is a preset reload amount
type CoinPackage struct {
	ID       string  `json:"id"`
	Coins    float64 `json:"coins"`
	PriceUSD float64 `json:"price_usd"`
	Label    string  `json:"label"`
}

// FundingSelection is a chosen rail plus either a package or a free-form
// amount. When Package is set it takes precedence over Amount.
type FundingSelection struct {
	Method  FundingMethod `json:"method" binding:"required"`
	Package string        `json:"package,omitempty"`
	Amount  *float64      `json:"amount,omitempty"`
}

// CheckoutTarget is where a funding selection leads. Unsupported targets carry
// only a message.
type CheckoutTarget struct {
	Method    FundingMethod `json:"method"`
	Supported bool          `json:"supported"`
	Path      string        `json:"path,omitempty"`
	Query     string        `json:"query,omitempty"`
	URL       string        `json:"url,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// CryptoQuote is the amount of a cryptocurrency payable for a coin reload
type CryptoQuote struct {
	Currency    string  `json:"currency"`
	PriceID     string  `json:"price_id"`
	AmountCoins float64 `json:"amount_coins"`
	AmountUSD   float64 `json:"amount_usd"`
	USDRate     float64 `json:"usd_rate"`
	Payable     string  `json:"payable"`
}

// CryptoOrderRequest is a self-reported crypto reload
type CryptoOrderRequest struct {
	Currency    string  `json:"currency" binding:"required"`
	AmountCoins float64 `json:"amount" binding:"required,gt=0"`
	FromAddress string  `json:"from_address,omitempty"`
	TxID        string  `json:"tx_id,omitempty"`
}

// BackendCryptoReload is the payload posted to POST /wallet/crypto-reload
type BackendCryptoReload struct {
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	CryptoAmount string  `json:"cryptoAmount"`
	USDRate      float64 `json:"usdRate"`
	FromAddress  string  `json:"fromAddress,omitempty"`
	TxID         string  `json:"txId,omitempty"`
}

type StripeCheckoutRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}
