package rates

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"cloutcoin/internal/config"
	"cloutcoin/internal/metrics"
	"cloutcoin/internal/model"

	"github.com/rs/zerolog"
)

// minimum withdrawal per method, in payout currency units
var minWithdrawUnits = map[string]float64{
	"BTC":    20,
	"LTC":    20,
	"ETH":    20,
	"SOL":    20,
	"XMR":    20,
	"TON":    20,
	"USD":    25,
	"Bank":   50,
	"Amazon": 10,
	"Visa":   20,
}

// DefaultMethods returns the built-in rate table. Crypto rates start at zero.
func DefaultMethods() []model.WithdrawalMethod {
	crypto := func(id, name string) model.WithdrawalMethod {
		return model.WithdrawalMethod{
			ID:                 id,
			DisplayName:        name,
			Kind:               model.MethodKindCrypto,
			MinWithdrawCoins:   minWithdrawUnits[id] * model.CoinsPerUSD,
			FeeCoins:           250,
			ServerCostFraction: 0.02,
			WaitTime:           "Within 1 hour",
			PriceID:            CryptoPriceIDs[id],
		}
	}

	return []model.WithdrawalMethod{
		crypto("BTC", "Bitcoin"),
		crypto("LTC", "Litecoin"),
		crypto("ETH", "Ethereum"),
		crypto("SOL", "Solana"),
		crypto("XMR", "Monero"),
		crypto("TON", "Toncoin"),
		{
			ID:                 "USD",
			DisplayName:        "PayPal (USD)",
			Kind:               model.MethodKindPayPal,
			Rate:               model.CoinsPerUSD,
			MinWithdrawCoins:   minWithdrawUnits["USD"] * model.CoinsPerUSD,
			FeeCoins:           500,
			ServerCostFraction: 0.05,
			WaitTime:           "1-3 business days",
		},
		{
			ID:                 "Bank",
			DisplayName:        "Bank transfer",
			Kind:               model.MethodKindBank,
			Rate:               model.CoinsPerUSD,
			MinWithdrawCoins:   minWithdrawUnits["Bank"] * model.CoinsPerUSD,
			FeeCoins:           1000,
			ServerCostFraction: 0.03,
			WaitTime:           "3-5 business days",
		},
		{
			ID:                 "Amazon",
			DisplayName:        "Amazon gift card",
			Kind:               model.MethodKindGiftCard,
			Rate:               model.CoinsPerUSD,
			MinWithdrawCoins:   minWithdrawUnits["Amazon"] * model.CoinsPerUSD,
			FeeCoins:           0,
			ServerCostFraction: 0.05,
			WaitTime:           "Within 24 hours",
		},
		{
			ID:                 "Visa",
			DisplayName:        "Visa prepaid card",
			Kind:               model.MethodKindGiftCard,
			Rate:               model.CoinsPerUSD,
			MinWithdrawCoins:   minWithdrawUnits["Visa"] * model.CoinsPerUSD,
			FeeCoins:           250,
			ServerCostFraction: 0.05,
			WaitTime:           "Within 24 hours",
		},
	}
}

// ApplyOverrides merges a configured schedule into methods. Overrides can
// change fixed fields or add non-crypto methods; crypto rates stay live.
func ApplyOverrides(methods []model.WithdrawalMethod, overrides []config.MethodOverride) ([]model.WithdrawalMethod, error) {
	out := append([]model.WithdrawalMethod(nil), methods...)
	index := make(map[string]int, len(out))
	for i, m := range out {
		index[m.ID] = i
	}

	for _, o := range overrides {
		i, exists := index[o.ID]
		if !exists {
			kind := model.MethodKind(strings.ToLower(o.Kind))
			switch kind {
			case model.MethodKindPayPal, model.MethodKindBank, model.MethodKindGiftCard:
			case model.MethodKindCrypto:
				return nil, fmt.Errorf("method %s: crypto methods cannot be added by configuration", o.ID)
			default:
				return nil, fmt.Errorf("method %s: unknown kind %q", o.ID, o.Kind)
			}
			out = append(out, model.WithdrawalMethod{ID: o.ID, DisplayName: o.ID, Kind: kind, Rate: model.CoinsPerUSD})
			i = len(out) - 1
			index[o.ID] = i
		}

		m := &out[i]
		if o.DisplayName != "" {
			m.DisplayName = o.DisplayName
		}
		if o.WaitTime != "" {
			m.WaitTime = o.WaitTime
		}
		if o.Rate != nil && m.Kind != model.MethodKindCrypto {
			m.Rate = *o.Rate
		}
		if o.MinWithdrawUnits != nil {
			m.MinWithdrawCoins = *o.MinWithdrawUnits * model.CoinsPerUSD
		}
		if o.FeeCoins != nil {
			m.FeeCoins = *o.FeeCoins
		}
		if o.ServerCostFraction != nil {
			if *o.ServerCostFraction < 0 || *o.ServerCostFraction >= 1 {
				return nil, fmt.Errorf("method %s: server cost fraction %v out of range", o.ID, *o.ServerCostFraction)
			}
			m.ServerCostFraction = *o.ServerCostFraction
		}
	}

	return out, nil
}

// Table is the live rate table. Crypto rates are replaced by Refresh; all
// other fields are fixed at construction.
type Table struct {
	mu          sync.RWMutex
	methods     map[string]model.WithdrawalMethod
	order       []string
	prices      PriceSource
	refreshedAt time.Time
	logger      zerolog.Logger
}

func NewTable(methods []model.WithdrawalMethod, prices PriceSource, logger zerolog.Logger) *Table {
	t := &Table{
		methods: make(map[string]model.WithdrawalMethod, len(methods)),
		prices:  prices,
		logger:  logger.With().Str("component", "rate_table").Logger(),
	}
	for _, m := range methods {
		if _, dup := t.methods[m.ID]; !dup {
			t.order = append(t.order, m.ID)
		}
		t.methods[m.ID] = m
	}
	return t
}

// Refresh fetches crypto prices once. On failure the error is logged and
// returned, and the previous rates are kept.
func (t *Table) Refresh(ctx context.Context) error {
	t.mu.RLock()
	ids := make([]string, 0)
	for _, m := range t.methods {
		if m.Kind == model.MethodKindCrypto && m.PriceID != "" {
			ids = append(ids, m.PriceID)
		}
	}
	t.mu.RUnlock()

	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)

	prices, err := t.prices.USDPrices(ctx, ids)
	if err != nil {
		metrics.PriceFetchFailures.Inc()
		t.logger.Error().Err(err).Msg("failed to refresh crypto rates, keeping previous rates")
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	updated := 0
	for id, m := range t.methods {
		if m.Kind != model.MethodKindCrypto {
			continue
		}
		usd, ok := prices[m.PriceID]
		if !ok {
			t.logger.Warn().Str("method", id).Msg("price index returned no price")
			continue
		}
		m.Rate = usd * model.CoinsPerUSD
		t.methods[id] = m
		updated++
	}
	t.refreshedAt = time.Now()

	t.logger.Info().Int("updated", updated).Msg("crypto rates refreshed")
	return nil
}

// Run refreshes once and then every interval until ctx is done. A
// non-positive interval refreshes only once.
func (t *Table) Run(ctx context.Context, interval time.Duration) {
	_ = t.Refresh(ctx)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = t.Refresh(ctx)
		}
	}
}

// Snapshot returns a copy of the table that will not change
func (t *Table) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	methods := make(map[string]model.WithdrawalMethod, len(t.methods))
	for id, m := range t.methods {
		methods[id] = m
	}
	return Snapshot{
		methods:     methods,
		order:       append([]string(nil), t.order...),
		RefreshedAt: t.refreshedAt,
	}
}

// Snapshot is an immutable view of the rate table
type Snapshot struct {
	methods     map[string]model.WithdrawalMethod
	order       []string
	RefreshedAt time.Time
}

// NewSnapshot builds a snapshot directly from a method list
func NewSnapshot(methods []model.WithdrawalMethod) Snapshot {
	s := Snapshot{methods: make(map[string]model.WithdrawalMethod, len(methods))}
	for _, m := range methods {
		if _, dup := s.methods[m.ID]; !dup {
			s.order = append(s.order, m.ID)
		}
		s.methods[m.ID] = m
	}
	return s
}

func (s Snapshot) Lookup(id string) (model.WithdrawalMethod, bool) {
	m, ok := s.methods[id]
	return m, ok
}

// Methods lists the table in configuration order
func (s Snapshot) Methods() []model.WithdrawalMethod {
	out := make([]model.WithdrawalMethod, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.methods[id])
	}
	return out
}
