package withdraw

import (
	"testing"

	"cloutcoin/internal/model"
	"cloutcoin/internal/payout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func method(t *testing.T, id string) model.WithdrawalMethod {
	t.Helper()
	m, ok := testSnapshot().Lookup(id)
	require.True(t, ok, id)
	return m
}

func TestDecodePayoutCrypto(t *testing.T) {
	p, err := DecodePayout(method(t, "ETH"), map[string]string{
		"address": "0x52908400098527886E0F7030069857D2E4169EE7",
	})
	require.NoError(t, err)

	crypto, ok := p.(model.CryptoPayout)
	require.True(t, ok)
	assert.Equal(t, "ETH", crypto.Currency)
	assert.Equal(t, model.MethodKindCrypto, p.Kind())

	_, err = DecodePayout(method(t, "ETH"), map[string]string{"address": "0x1234"})
	assert.ErrorIs(t, err, ErrInvalidPayout)
	assert.ErrorContains(t, err, payout.ErrInvalidAddress.Error())
}

func TestDecodePayoutPayPal(t *testing.T) {
	p, err := DecodePayout(method(t, "USD"), map[string]string{"paypalEmail": "user@example.com"})
	require.NoError(t, err)
	assert.Equal(t, model.PayPalPayout{Email: "user@example.com"}, p)
	assert.Equal(t, map[string]string{"paypalEmail": "user@example.com"}, p.Fields())

	_, err = DecodePayout(method(t, "USD"), map[string]string{"paypalEmail": "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidPayout)

	_, err = DecodePayout(method(t, "USD"), nil)
	assert.ErrorIs(t, err, ErrInvalidPayout)
}

func TestDecodePayoutBank(t *testing.T) {
	fields := map[string]string{
		"accountHolder": "Ada Lovelace",
		"accountNumber": "000123456789",
		"routingNumber": "110000000",
		"bankName":      "First Bank",
	}
	p, err := DecodePayout(method(t, "Bank"), fields)
	require.NoError(t, err)
	assert.Equal(t, fields, p.Fields())

	delete(fields, "routingNumber")
	_, err = DecodePayout(method(t, "Bank"), fields)
	assert.ErrorIs(t, err, ErrInvalidPayout)
	assert.ErrorContains(t, err, "routingNumber")
}

func TestDecodePayoutGiftCard(t *testing.T) {
	p, err := DecodePayout(method(t, "Amazon"), map[string]string{"country": "US", "Email": "gift@example.com"})
	require.NoError(t, err)
	assert.Equal(t, model.GiftCardPayout{Brand: "Amazon", Country: "US", Email: "gift@example.com"}, p)

	_, err = DecodePayout(method(t, "Visa"), map[string]string{"email": "gift@example.com"})
	assert.ErrorIs(t, err, ErrInvalidPayout)
}

func TestDecodePayoutUnknownKind(t *testing.T) {
	_, err := DecodePayout(model.WithdrawalMethod{ID: "DOGE"}, map[string]string{"address": "D123"})
	assert.ErrorIs(t, err, ErrUnknownMethod)
}
