package withdraw

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"cloutcoin/internal/model"
	"cloutcoin/internal/rates"

	"github.com/leekchan/accounting"
)

var (
	ErrAmountNotNumber = errors.New("amount is not a number")
	ErrBelowMinimum    = errors.New("amount is below the minimum withdrawal")
	ErrExceedsBalance  = errors.New("amount exceeds wallet balance")
)

var numericPrefix = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// ParseAmount reads a coin amount from free text the way a browser's
// parseFloat does: leading whitespace is skipped and the longest numeric
// prefix is used, "Infinity" included. Text without one yields NaN.
func ParseAmount(text string) float64 {
	text = strings.TrimLeft(text, " \t\n\r\f\v")
	match := numericPrefix.FindString(text)
	if match == "" {
		return math.NaN()
	}
	// out of range prefixes parse to ±Inf along with an error; keep the Inf
	v, _ := strconv.ParseFloat(match, 64)
	return v
}

// Calculate derives the withdrawal figures for method and amountCoins. It is
// pure: the same snapshot and inputs always give the same quote. An unknown
// method yields zero rate, minimum, fee and server cost.
func Calculate(snapshot rates.Snapshot, method string, amountCoins float64) model.Quote {
	m, known := snapshot.Lookup(method)

	serverCost := m.ServerCostFraction * amountCoins
	q := model.Quote{
		Method:             method,
		Known:              known,
		DisplayName:        m.DisplayName,
		AmountCoins:        amountCoins,
		Rate:               m.Rate,
		MinWithdrawCoins:   m.MinWithdrawCoins,
		FeeCoins:           m.FeeCoins,
		ServerCostFraction: m.ServerCostFraction,
		ServerCost:         serverCost,
		TotalCost:          m.FeeCoins + serverCost + amountCoins,
		WaitTime:           m.WaitTime,
	}
	if m.Rate > 0 {
		q.PayoutAmount = amountCoins / m.Rate
	}
	q.Display = display(q, m.Kind)
	return q
}

// CheckEligibility reports why a quote may not be submitted, or nil
func CheckEligibility(q model.Quote, balance float64) error {
	switch {
	case math.IsNaN(q.AmountCoins):
		return ErrAmountNotNumber
	case q.AmountCoins < q.MinWithdrawCoins:
		return ErrBelowMinimum
	case q.AmountCoins > balance:
		return ErrExceedsBalance
	}
	return nil
}

var coinFormat = accounting.Accounting{Symbol: "", Precision: 0, Thousand: ",", Decimal: "."}

func display(q model.Quote, kind model.MethodKind) model.QuoteDisplay {
	if math.IsNaN(q.AmountCoins) || math.IsInf(q.AmountCoins, 0) {
		return model.QuoteDisplay{}
	}

	coins := func(v float64) string { return coinFormat.FormatMoneyFloat64(math.Round(v)) }

	var payout string
	switch kind {
	case model.MethodKindCrypto:
		ac := accounting.Accounting{Symbol: q.Method, Precision: 8, Thousand: ",", Decimal: ".", Format: "%v %s"}
		payout = ac.FormatMoneyFloat64(q.PayoutAmount)
	case model.MethodKindPayPal, model.MethodKindBank, model.MethodKindGiftCard:
		ac := accounting.Accounting{Symbol: "$", Precision: 2, Thousand: ",", Decimal: "."}
		payout = ac.FormatMoneyFloat64(q.PayoutAmount)
	}

	return model.QuoteDisplay{
		Amount:     coins(q.AmountCoins),
		Fee:        coins(q.FeeCoins),
		ServerCost: coins(q.ServerCost),
		TotalCost:  coins(q.TotalCost),
		Payout:     payout,
	}
}
