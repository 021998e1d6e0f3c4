// Package checkout turns funding selections into checkout targets and
// places wallet reload orders.
package checkout

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"cloutcoin/internal/model"
)

// UnsupportedMessage is shown for rails without a checkout flow
const UnsupportedMessage = "This payment method is not supported yet."

var (
	ErrUnknownPackage = errors.New("unknown coin package")
	ErrInvalidAmount  = errors.New("amount must be a positive number")
)

var packages = []model.CoinPackage{
	{ID: "starter", Coins: 1000, PriceUSD: 1, Label: "1,000 coins"},
	{ID: "small", Coins: 5000, PriceUSD: 5, Label: "5,000 coins"},
	{ID: "medium", Coins: 10000, PriceUSD: 10, Label: "10,000 coins"},
	{ID: "large", Coins: 25000, PriceUSD: 25, Label: "25,000 coins"},
	{ID: "xl", Coins: 50000, PriceUSD: 50, Label: "50,000 coins"},
	{ID: "whale", Coins: 100000, PriceUSD: 100, Label: "100,000 coins"},
}

// Packages lists the preset reload amounts
func Packages() []model.CoinPackage {
	return append([]model.CoinPackage(nil), packages...)
}

func findPackage(id string) (model.CoinPackage, bool) {
	for _, p := range packages {
		if strings.EqualFold(p.ID, id) {
			return p, true
		}
	}
	return model.CoinPackage{}, false
}

// Route maps a funding selection to where the client should go next. A
// package selection carries its coin count as the amount. Rails
// without a flow get an unsupported target and no path; that is not an
// error.
func Route(sel model.FundingSelection) (model.CheckoutTarget, error) {
	var path string
	switch sel.Method {
	case model.FundingStripe:
		path = "/wallet/stripe-checkout"
	case model.FundingCrypto:
		path = "/wallet/crypto-order"
	default:
		return model.CheckoutTarget{Method: sel.Method, Message: UnsupportedMessage}, nil
	}

	amount, err := selectionAmount(sel)
	if err != nil {
		return model.CheckoutTarget{}, err
	}

	query := url.Values{}
	query.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))

	return model.CheckoutTarget{
		Method:    sel.Method,
		Supported: true,
		Path:      path,
		Query:     query.Encode(),
		URL:       path + "?" + query.Encode(),
	}, nil
}

func selectionAmount(sel model.FundingSelection) (float64, error) {
	if sel.Package != "" {
		p, ok := findPackage(sel.Package)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownPackage, sel.Package)
		}
		return p.Coins, nil
	}
	if sel.Amount == nil || math.IsNaN(*sel.Amount) || math.IsInf(*sel.Amount, 0) || *sel.Amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return *sel.Amount, nil
}
