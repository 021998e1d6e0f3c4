package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// CryptoPriceIDs maps a currency code to its price index id
var CryptoPriceIDs = map[string]string{
	"BTC": "bitcoin",
	"LTC": "litecoin",
	"ETH": "ethereum",
	"SOL": "solana",
	"XMR": "monero",
	"TON": "the-open-network",
}

var (
	ErrUnknownCurrency = errors.New("unknown cryptocurrency")
	ErrPriceMissing    = errors.New("price not reported")
)

// PriceSource reports USD spot prices keyed by price index id
type PriceSource interface {
	USDPrices(ctx context.Context, ids []string) (map[string]float64, error)
}

// PriceIndex is a client for the CoinGecko simple price API
type PriceIndex struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
	logger     zerolog.Logger
}

// NewPriceIndex builds a client. Responses are cached for ttl; a ttl of zero
// disables caching.
func NewPriceIndex(baseURL string, ttl time.Duration, logger zerolog.Logger) *PriceIndex {
	p := &PriceIndex{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		logger: logger.With().Str("component", "price_index").Logger(),
	}
	if ttl > 0 {
		p.cache = cache.New(ttl, 2*ttl)
	}
	return p
}

// USDPrices fetches the USD price of every id in one request
func (p *PriceIndex) USDPrices(ctx context.Context, ids []string) (map[string]float64, error) {
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	key := strings.Join(sorted, ",")

	if p.cache != nil {
		if cached, ok := p.cache.Get(key); ok {
			return copyPrices(cached.(map[string]float64)), nil
		}
	}

	u, err := url.Parse(p.baseURL + "/simple/price")
	if err != nil {
		return nil, fmt.Errorf("invalid price index URL: %w", err)
	}
	q := u.Query()
	q.Set("ids", key)
	q.Set("vs_currencies", "usd")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price index returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload map[string]map[string]float64
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing JSON response failed: %w", err)
	}

	prices := make(map[string]float64, len(payload))
	for id, quote := range payload {
		if usd, ok := quote["usd"]; ok && usd > 0 {
			prices[id] = usd
		}
	}

	p.logger.Debug().Str("ids", key).Int("prices", len(prices)).Msg("fetched prices")

	if p.cache != nil {
		p.cache.Set(key, copyPrices(prices), cache.DefaultExpiration)
	}
	return prices, nil
}

// USDPrice fetches the USD price of one currency code, e.g. "BTC"
func (p *PriceIndex) USDPrice(ctx context.Context, currency string) (float64, error) {
	id, ok := CryptoPriceIDs[strings.ToUpper(currency)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, currency)
	}

	prices, err := p.USDPrices(ctx, []string{id})
	if err != nil {
		return 0, err
	}

	price, ok := prices[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrPriceMissing, id)
	}
	return price, nil
}

func copyPrices(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
