package withdraw

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"cloutcoin/internal/model"
	"cloutcoin/internal/payout"
)

var (
	ErrUnknownMethod = errors.New("unknown withdrawal method")
	ErrInvalidPayout = errors.New("invalid payout details")
)

// DecodePayout builds the payout variant for method from the submitted form
// fields. Keys are matched case-insensitively.
func DecodePayout(method model.WithdrawalMethod, fields map[string]string) (model.Payout, error) {
	get := func(keys ...string) string {
		for _, k := range keys {
			for fk, v := range fields {
				if strings.EqualFold(fk, k) {
					return strings.TrimSpace(v)
				}
			}
		}
		return ""
	}

	switch method.Kind {
	case model.MethodKindCrypto:
		addr := get("address", "walletAddress")
		if err := payout.ValidateAddress(method.ID, addr); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayout, err)
		}
		return model.CryptoPayout{Currency: method.ID, Address: addr}, nil

	case model.MethodKindPayPal:
		email, err := validEmail(get("paypalEmail", "email"))
		if err != nil {
			return nil, err
		}
		return model.PayPalPayout{Email: email}, nil

	case model.MethodKindBank:
		p := model.BankPayout{
			AccountHolder: get("accountHolder"),
			AccountNumber: get("accountNumber"),
			RoutingNumber: get("routingNumber"),
			BankName:      get("bankName"),
		}
		required := []struct{ name, value string }{
			{"accountHolder", p.AccountHolder},
			{"accountNumber", p.AccountNumber},
			{"routingNumber", p.RoutingNumber},
			{"bankName", p.BankName},
		}
		for _, f := range required {
			if f.value == "" {
				return nil, fmt.Errorf("%w: %s is required", ErrInvalidPayout, f.name)
			}
		}
		return p, nil

	case model.MethodKindGiftCard:
		country := get("country")
		if country == "" {
			return nil, fmt.Errorf("%w: country is required", ErrInvalidPayout)
		}
		email, err := validEmail(get("email"))
		if err != nil {
			return nil, err
		}
		return model.GiftCardPayout{Brand: method.ID, Country: country, Email: email}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method.ID)
}

func validEmail(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidPayout)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", fmt.Errorf("%w: %q is not an email address", ErrInvalidPayout, s)
	}
	return addr.Address, nil
}
