// Package payout validates withdrawal destinations for the crypto rails.
package payout

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/xssnick/tonutils-go/address"
)

var (
	ErrInvalidAddress      = errors.New("invalid payout address")
	ErrUnsupportedCurrency = errors.New("unsupported payout currency")
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// litecoin mainnet base58check versions: L, M and legacy 3
var litecoinVersions = map[byte]bool{0x30: true, 0x32: true, 0x05: true}

// ValidateAddress checks that addr is a well-formed mainnet address for
// currency. It does not check that the address exists on chain.
func ValidateAddress(currency, addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidAddress)
	}

	var err error
	switch strings.ToUpper(currency) {
	case "BTC":
		err = validateBitcoin(addr)
	case "LTC":
		err = validateLitecoin(addr)
	case "ETH":
		err = validateEthereum(addr)
	case "SOL":
		err = validateSolana(addr)
	case "XMR":
		err = validateMonero(addr)
	case "TON":
		err = validateTon(addr)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidAddress, strings.ToUpper(currency), err)
	}
	return nil
}

func validateBitcoin(addr string) error {
	decoded, err := btcutil.DecodeAddress(addr, &chaincfg.MainNetParams)
	if err != nil {
		return err
	}
	if !decoded.IsForNet(&chaincfg.MainNetParams) {
		return errors.New("not a mainnet address")
	}
	return nil
}

func validateLitecoin(addr string) error {
	if strings.HasPrefix(strings.ToLower(addr), "ltc1") {
		hrp, _, err := bech32.Decode(addr)
		if err != nil {
			return err
		}
		if hrp != "ltc" {
			return fmt.Errorf("unexpected prefix %q", hrp)
		}
		return nil
	}

	payload, version, err := base58.CheckDecode(addr)
	if err != nil {
		return err
	}
	if !litecoinVersions[version] || len(payload) != 20 {
		return errors.New("not a litecoin address")
	}
	return nil
}

func validateEthereum(addr string) error {
	if !common.IsHexAddress(addr) {
		return errors.New("not a hex address")
	}
	body := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	// mixed case means EIP-55 checksum
	if strings.ToLower(body) != body && strings.ToUpper(body) != body {
		if common.HexToAddress(addr).Hex() != "0x"+body {
			return errors.New("checksum mismatch")
		}
	}
	return nil
}

func validateSolana(addr string) error {
	if len(base58.Decode(addr)) != 32 {
		return errors.New("not a 32-byte base58 key")
	}
	return nil
}

func validateMonero(addr string) error {
	if len(addr) != 95 && len(addr) != 106 {
		return errors.New("unexpected length")
	}
	if addr[0] != '4' && addr[0] != '8' {
		return errors.New("unexpected network prefix")
	}
	for _, r := range addr {
		if !strings.ContainsRune(base58Alphabet, r) {
			return fmt.Errorf("invalid character %q", r)
		}
	}
	return nil
}

func validateTon(addr string) error {
	if strings.Contains(addr, ":") {
		_, err := parseRawTon(addr)
		return err
	}
	_, err := address.ParseAddr(addr)
	return err
}

// parseRawTon reads the raw "workchain:hex" form, e.g. "0:" followed by 64
// hex digits
func parseRawTon(addr string) (*address.Address, error) {
	wcText, hexText, _ := strings.Cut(addr, ":")
	wc, err := strconv.ParseInt(wcText, 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid workchain %q", wcText)
	}
	data, err := hex.DecodeString(hexText)
	if err != nil {
		return nil, fmt.Errorf("invalid account id: %w", err)
	}
	if len(data) != 32 {
		return nil, fmt.Errorf("account id is %d bytes, want 32", len(data))
	}
	return address.NewAddress(0, byte(int8(wc)), data), nil
}
