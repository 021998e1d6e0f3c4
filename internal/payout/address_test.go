package payout

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
)

func litecoinBech32(t *testing.T, hrp string) string {
	t.Helper()
	prog, err := bech32.ConvertBits(make([]byte, 20), 8, 5, true)
	require.NoError(t, err)
	addr, err := bech32.Encode(hrp, append([]byte{0}, prog...))
	require.NoError(t, err)
	return addr
}

func TestValidateAddressAccepts(t *testing.T) {
	tests := []struct {
		currency string
		addr     string
	}{
		{"BTC", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"},
		{"btc", "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"},
		{"LTC", base58.CheckEncode(make([]byte, 20), 0x30)},
		{"LTC", litecoinBech32(t, "ltc")},
		{"ETH", "0x" + strings.Repeat("ab", 20)},
		{"ETH", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
		{"SOL", strings.Repeat("1", 32)},
		{"XMR", "4" + strings.Repeat("A", 94)},
		{"TON", address.NewAddress(0, 0, make([]byte, 32)).String()},
		{"TON", "0:" + strings.Repeat("0", 64)},
		{"TON", "-1:" + strings.Repeat("ab", 32)},
	}
	for _, tt := range tests {
		assert.NoError(t, ValidateAddress(tt.currency, tt.addr), "%s %s", tt.currency, tt.addr)
	}
}

func TestValidateAddressRejects(t *testing.T) {
	tests := []struct {
		currency string
		addr     string
	}{
		{"BTC", ""},
		{"BTC", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNb"},
		{"BTC", "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"},
		{"LTC", base58.CheckEncode(make([]byte, 20), 0x00)},
		{"LTC", litecoinBech32(t, "tltc")},
		{"ETH", "0x1234"},
		{"ETH", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD"},
		{"SOL", "1111"},
		{"SOL", strings.Repeat("0", 44)},
		{"XMR", "4" + strings.Repeat("A", 93)},
		{"XMR", "1" + strings.Repeat("A", 94)},
		{"XMR", "4" + strings.Repeat("0", 94)},
		{"TON", "EQ123"},
		{"TON", "0:" + strings.Repeat("0", 62)},
		{"TON", "0:" + strings.Repeat("z", 64)},
		{"TON", "x:" + strings.Repeat("0", 64)},
		{"TON", "300:" + strings.Repeat("0", 64)},
		{"TON", "0:1:" + strings.Repeat("0", 64)},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, ValidateAddress(tt.currency, tt.addr), ErrInvalidAddress, "%s %s", tt.currency, tt.addr)
	}
}

func TestParseRawTon(t *testing.T) {
	addr, err := parseRawTon("-1:" + strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Equal(t, address.MasterchainID, addr.Workchain())
	assert.Len(t, addr.Data(), 32)

	addr, err = parseRawTon("0:" + strings.Repeat("0", 64))
	require.NoError(t, err)
	assert.Equal(t, int32(0), addr.Workchain())
}

func TestValidateAddressUnsupportedCurrency(t *testing.T) {
	assert.ErrorIs(t, ValidateAddress("DOGE", "D8vFz4p1L37jdg47HXKtSHA5uYLYxbGgPD"), ErrUnsupportedCurrency)
}
