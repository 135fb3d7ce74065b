package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormMethod(t *testing.T) {
	cases := map[string]string{
		"cash":          MethodCash,
		"  NAKIT ":      MethodCash,
		"Kredi Kartı":   MethodPOS,
		"KREDİ KARTI":   MethodPOS,
		"kart":          MethodPOS,
		"Havale":        MethodTransfer,
		"EFT":           MethodTransfer,
		"iyzico":        MethodOnline,
		"Stripe":        MethodOnline,
		"":              MethodOther,
		"bitcoin":       MethodOther,
		"other":         MethodOther,
		"   ":           MethodOther,
		"kredi   karti": MethodPOS,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormMethod(in), "input %q", in)
	}
}

func TestNormSource(t *testing.T) {
	cases := map[string]string{
		"res_payment":     SourceReservationPayment,
		"payment":         SourceReservationPayment,
		"RES_REFUND":      SourceReservationRefund,
		"balance":         SourceReservationBalance,
		"planned":         SourceReservationPlanned,
		"channel_payout":  SourceChannelPayout,
		"OTA":             SourceChannelPayout,
		"transfer_in":     SourceTransferIn,
		"opening_balance": SourceOpeningBalance,
		"Import":          SourceImport,
		"":                SourceManual,
		"whatever":        SourceManual,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormSource(in), "input %q", in)
	}
}

func TestCanonicalizationIsTotal(t *testing.T) {
	methods := map[string]bool{MethodCash: true, MethodPOS: true, MethodTransfer: true, MethodOnline: true, MethodOther: true}
	sources := map[string]bool{}
	for _, s := range sourceCanon {
		sources[s] = true
	}
	inputs := []string{"", " ", "çağrı", "ÖDEME", "ı", "İade", "x́", "💳", "res payment", "Cash\t"}
	for _, in := range inputs {
		assert.True(t, methods[NormMethod(in)], "method for %q", in)
		assert.True(t, sources[NormSource(in)], "source for %q", in)
	}
}

func TestNormCurrency(t *testing.T) {
	c, ok := NormCurrency(" usd ")
	assert.True(t, ok)
	assert.Equal(t, "USD", c)

	_, ok = NormCurrency("JPY")
	assert.False(t, ok)

	_, ok = NormCurrency("")
	assert.False(t, ok)
}
