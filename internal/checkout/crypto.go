package checkout

import (
	"context"
	"fmt"
	"math"
	"strings"

	"cloutcoin/internal/backend"
	"cloutcoin/internal/model"
	"cloutcoin/internal/rates"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PriceIndex reports the USD price of a currency code
type PriceIndex interface {
	USDPrice(ctx context.Context, currency string) (float64, error)
}

type ReloadBackend interface {
	StripeReload(ctx context.Context, creds backend.Credentials, amount float64) (map[string]interface{}, error)
	CryptoReload(ctx context.Context, creds backend.Credentials, order model.BackendCryptoReload) (map[string]interface{}, error)
}

type OperationRecorder interface {
	AddOperation(ctx context.Context, op *model.Operation) error
}

// Account is the session a reload is made for
type Account interface {
	backend.Credentials
	ID() string
	Profile() model.Profile
}

type Service struct {
	prices  PriceIndex
	backend ReloadBackend
	ops     OperationRecorder
	logger  zerolog.Logger
}

func NewService(prices PriceIndex, reload ReloadBackend, ops OperationRecorder, logger zerolog.Logger) *Service {
	return &Service{
		prices:  prices,
		backend: reload,
		ops:     ops,
		logger:  logger.With().Str("component", "checkout").Logger(),
	}
}

// PayableAmount converts coins to an amount of crypto at usdRate, fixed to 8
// decimals. usdRate must be a positive finite price.
func PayableAmount(amountCoins, usdRate float64) (string, error) {
	if math.IsNaN(amountCoins) || math.IsInf(amountCoins, 0) {
		return "", ErrInvalidAmount
	}
	if math.IsNaN(usdRate) || math.IsInf(usdRate, 0) || usdRate <= 0 {
		return "", fmt.Errorf("%w: rate %v", rates.ErrPriceMissing, usdRate)
	}
	usd := decimal.NewFromFloat(amountCoins).Div(decimal.NewFromInt(model.CoinsPerUSD))
	return usd.Div(decimal.NewFromFloat(usdRate)).StringFixed(8), nil
}

// CryptoQuote prices a coin reload in currency using the live USD rate
func (s *Service) CryptoQuote(ctx context.Context, currency string, amountCoins float64) (*model.CryptoQuote, error) {
	if math.IsNaN(amountCoins) || math.IsInf(amountCoins, 0) || amountCoins <= 0 {
		return nil, ErrInvalidAmount
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))

	usdRate, err := s.prices.USDPrice(ctx, currency)
	if err != nil {
		return nil, err
	}
	payable, err := PayableAmount(amountCoins, usdRate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", currency, err)
	}

	return &model.CryptoQuote{
		Currency:    currency,
		PriceID:     rates.CryptoPriceIDs[currency],
		AmountCoins: amountCoins,
		AmountUSD:   amountCoins / model.CoinsPerUSD,
		USDRate:     usdRate,
		Payable:     payable,
	}, nil
}

// PlaceCryptoOrder reports a self-declared crypto payment. The backend logs it
// as pending; nothing here checks the chain.
func (s *Service) PlaceCryptoOrder(ctx context.Context, acct Account, req model.CryptoOrderRequest) (map[string]interface{}, error) {
	quote, err := s.CryptoQuote(ctx, req.Currency, req.AmountCoins)
	if err != nil {
		return nil, err
	}

	order := model.BackendCryptoReload{
		Amount:       quote.AmountCoins,
		Currency:     quote.Currency,
		CryptoAmount: quote.Payable,
		USDRate:      quote.USDRate,
		FromAddress:  strings.TrimSpace(req.FromAddress),
		TxID:         strings.TrimSpace(req.TxID),
	}
	res, err := s.backend.CryptoReload(ctx, acct, order)
	if err != nil {
		return nil, err
	}

	s.record(ctx, acct, model.OperationTypeCryptoOrder, quote.AmountCoins,
		fmt.Sprintf("Crypto order: %s %s", quote.Payable, quote.Currency),
		map[string]interface{}{"currency": quote.Currency, "payable": quote.Payable, "tx_id": order.TxID})

	return map[string]interface{}{"quote": quote, "order": res}, nil
}

// StartStripeCheckout asks the backend for a card checkout session and passes
// its payload through
func (s *Service) StartStripeCheckout(ctx context.Context, acct Account, amount float64) (map[string]interface{}, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, ErrInvalidAmount
	}

	res, err := s.backend.StripeReload(ctx, acct, amount)
	if err != nil {
		return nil, err
	}

	s.record(ctx, acct, model.OperationTypeStripeCheckout, amount, "Card checkout started", nil)
	return res, nil
}

func (s *Service) record(ctx context.Context, acct Account, typ model.OperationType, amount float64, description string, extra interface{}) {
	op := &model.Operation{
		SessionID:   acct.ID(),
		UserID:      acct.Profile().ID,
		Type:        typ,
		Amount:      amount,
		Description: description,
		Extra:       extra,
	}
	if err := s.ops.AddOperation(ctx, op); err != nil {
		s.logger.Error().Err(err).Str("type", string(typ)).Msg("failed to record operation")
	}
}
