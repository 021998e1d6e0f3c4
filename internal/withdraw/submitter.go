package withdraw

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"cloutcoin/internal/backend"
	"cloutcoin/internal/metrics"
	"cloutcoin/internal/model"
	"cloutcoin/internal/rates"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSubmissionInFlight is returned while the same session already has a
// withdrawal waiting on the backend
var ErrSubmissionInFlight = errors.New("a withdrawal is already being submitted")

// ErrRateUnavailable is returned for crypto methods before the first price fetch
var ErrRateUnavailable = errors.New("exchange rate not available yet")

// ValidationError is a refusal decided before the withdrawal reaches the
// backend. Quote is what the user would have been charged.
type ValidationError struct {
	Quote model.Quote
	Err   error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// Account is the session a withdrawal is made for
type Account interface {
	backend.Credentials
	ID() string
	Profile() model.Profile
}

type WalletBackend interface {
	GetWallet(ctx context.Context, creds backend.Credentials) (*model.Wallet, error)
	Withdraw(ctx context.Context, creds backend.Credentials, w model.BackendWithdrawal) (*model.BackendWithdrawalResult, error)
}

type OperationRecorder interface {
	AddOperation(ctx context.Context, op *model.Operation) error
}

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// RateSource hands out the current rate table
type RateSource interface {
	Snapshot() rates.Snapshot
}

type Submitter struct {
	rates    RateSource
	wallet   WalletBackend
	ops      OperationRecorder
	notifier Notifier
	logger   zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewSubmitter(table RateSource, wallet WalletBackend, ops OperationRecorder, notifier Notifier, logger zerolog.Logger) *Submitter {
	return &Submitter{
		rates:    table,
		wallet:   wallet,
		ops:      ops,
		notifier: notifier,
		logger:   logger.With().Str("component", "withdraw").Logger(),
		inFlight: make(map[string]struct{}),
	}
}

// Check quotes req and reports why Submit would refuse it against balance, or
// nil. Payout details are not looked at.
func (s *Submitter) Check(req model.WithdrawRequest, balance float64) (model.Quote, error) {
	quote, _, err := prepare(s.rates.Snapshot(), req)
	if err != nil {
		return quote, err
	}
	return quote, CheckEligibility(quote, balance)
}

// prepare quotes req and runs the checks that need no balance
func prepare(snapshot rates.Snapshot, req model.WithdrawRequest) (model.Quote, model.WithdrawalMethod, error) {
	quote := Calculate(snapshot, req.Method, ParseAmount(string(req.Amount)))

	method, ok := snapshot.Lookup(req.Method)
	if !ok {
		return quote, method, fmt.Errorf("%w: %s", ErrUnknownMethod, req.Method)
	}
	if math.IsNaN(quote.AmountCoins) {
		return quote, method, ErrAmountNotNumber
	}
	if method.Kind == model.MethodKindCrypto && method.Rate <= 0 {
		return quote, method, fmt.Errorf("%w: %s", ErrRateUnavailable, method.ID)
	}
	return quote, method, nil
}

// Submit validates req and posts it to the backend. Validation failures are
// returned as *ValidationError and never reach the withdraw endpoint.
func (s *Submitter) Submit(ctx context.Context, acct Account, req model.WithdrawRequest) (*model.WithdrawalResponse, error) {
	quote, method, err := prepare(s.rates.Snapshot(), req)
	if err != nil {
		return nil, s.reject(quote, err)
	}
	dest, err := DecodePayout(method, req.Payout)
	if err != nil {
		return nil, s.reject(quote, err)
	}

	release, err := s.acquire(acct.ID())
	if err != nil {
		metrics.WithdrawalSubmissions.WithLabelValues("in_flight").Inc()
		return nil, err
	}
	defer release()

	wallet, err := s.wallet.GetWallet(ctx, acct)
	if err != nil {
		metrics.WithdrawalSubmissions.WithLabelValues("error").Inc()
		return nil, err
	}
	if err := CheckEligibility(quote, wallet.Balance); err != nil {
		return nil, s.reject(quote, err)
	}

	profile := acct.Profile()
	payload := model.BackendWithdrawal{
		Amount:         quote.AmountCoins,
		Method:         quote.Method,
		Fee:            quote.FeeCoins,
		ServerCost:     quote.ServerCost,
		TotalCost:      quote.TotalCost,
		Rate:           quote.Rate,
		ExtraFormData:  dest.Fields(),
		UserID:         profile.ID,
		Username:       profile.Username,
		Email:          profile.Email,
		FirstName:      profile.FirstName,
		LastName:       profile.LastName,
		IdempotencyKey: uuid.NewString(),
	}

	res, err := s.wallet.Withdraw(ctx, acct, payload)
	if err != nil {
		metrics.WithdrawalSubmissions.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Str("session_id", acct.ID()).Str("method", quote.Method).Msg("withdrawal rejected by backend")
		return nil, err
	}
	metrics.WithdrawalSubmissions.WithLabelValues("accepted").Inc()

	s.logger.Info().
		Str("session_id", acct.ID()).
		Str("user", profile.Username).
		Str("method", quote.Method).
		Float64("amount", quote.AmountCoins).
		Float64("total_cost", quote.TotalCost).
		Str("withdrawal_id", res.ID).
		Msg("withdrawal submitted")

	op := &model.Operation{
		SessionID:   acct.ID(),
		UserID:      profile.ID,
		Type:        model.OperationTypeWithdrawal,
		Amount:      quote.TotalCost,
		Description: fmt.Sprintf("Withdrawal of %s coins via %s", quote.Display.Amount, quote.Method),
		Extra: map[string]interface{}{
			"withdrawal_id":   res.ID,
			"payout_amount":   quote.PayoutAmount,
			"idempotency_key": payload.IdempotencyKey,
		},
	}
	if err := s.ops.AddOperation(ctx, op); err != nil {
		s.logger.Error().Err(err).Msg("failed to record withdrawal operation")
	}

	text := fmt.Sprintf("Withdrawal request\nUser: %s (%s)\nMethod: %s\nAmount: %s coins\nTotal cost: %s coins\nPayout: %s",
		profile.Username, profile.Email, quote.Method, quote.Display.Amount, quote.Display.TotalCost, quote.Display.Payout)
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.logger.Warn().Err(err).Msg("failed to notify operators")
	}

	message := res.Message
	if message == "" {
		message = "Withdrawal request submitted"
	}
	return &model.WithdrawalResponse{Quote: quote, Message: message, ID: res.ID, Status: res.Status}, nil
}

func (s *Submitter) reject(q model.Quote, err error) error {
	metrics.WithdrawalSubmissions.WithLabelValues("rejected").Inc()
	return &ValidationError{Quote: q, Err: err}
}

func (s *Submitter) acquire(sessionID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[sessionID]; busy {
		return nil, ErrSubmissionInFlight
	}
	s.inFlight[sessionID] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inFlight, sessionID)
		s.mu.Unlock()
	}, nil
}
