// Package finance turns reservations and their captured payments into
// ledger entries.  Everything in this package is pure: no database, no
// clock reads except where a fallback date is explicitly passed in.
package finance

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical payment methods.
const (
	MethodCash     = "cash"
	MethodPOS      = "pos"
	MethodTransfer = "transfer"
	MethodOnline   = "online"
	MethodOther    = "other"
)

// Canonical entry sources.
const (
	SourceManual             = "manual"
	SourceSystem             = "system"
	SourceImport             = "import"
	SourceAdjustment         = "adjustment"
	SourceReservationPayment = "reservation-payment"
	SourceReservationRefund  = "reservation-refund"
	SourceReservationBalance = "reservation-balance"
	SourceReservationPlanned = "reservation-planned"
	SourceChannelPayout      = "channel-payout"
	SourceTransferIn         = "transfer-in"
	SourceTransferOut        = "transfer-out"
	SourceOpeningBalance     = "opening-balance"
	SourceClosingBalance     = "closing-balance"
)

// BaseCurrency is the currency AmountInBase is expressed in.
const BaseCurrency = "TRY"

// Keys are stored folded (see fold) so lookups ignore case and accents.
var methodCanon = map[string]string{
	"cash": MethodCash, "nakit": MethodCash,
	"pos": MethodPOS, "card": MethodPOS, "kart": MethodPOS, "kredi karti": MethodPOS, "credit card": MethodPOS,
	"transfer": MethodTransfer, "havale": MethodTransfer, "eft": MethodTransfer,
	"wire": MethodTransfer, "bank": MethodTransfer,
	"online": MethodOnline, "virtualpos": MethodOnline, "stripe": MethodOnline,
	"paypal": MethodOnline, "iyzico": MethodOnline,
	"other": MethodOther,
}

var sourceCanon = map[string]string{
	"manual": SourceManual, "system": SourceSystem, "import": SourceImport, "adjustment": SourceAdjustment,

	"reservation-payment": SourceReservationPayment, "res_payment": SourceReservationPayment, "payment": SourceReservationPayment,
	"reservation-refund": SourceReservationRefund, "res_refund": SourceReservationRefund, "refund": SourceReservationRefund,
	"reservation-balance": SourceReservationBalance, "res_balance": SourceReservationBalance, "balance": SourceReservationBalance,
	"reservation-planned": SourceReservationPlanned, "res_planned": SourceReservationPlanned, "planned": SourceReservationPlanned,

	"channel-payout": SourceChannelPayout, "channel_payout": SourceChannelPayout, "ota": SourceChannelPayout,

	"transfer-in": SourceTransferIn, "transfer_in": SourceTransferIn,
	"transfer-out": SourceTransferOut, "transfer_out": SourceTransferOut,

	"opening-balance": SourceOpeningBalance, "opening_balance": SourceOpeningBalance,
	"closing-balance": SourceClosingBalance, "closing_balance": SourceClosingBalance,
}

var currencies = map[string]bool{"TRY": true, "USD": true, "EUR": true, "GBP": true}

// NormMethod maps a free-text payment method onto the canonical set.
// Unknown or empty input yields MethodOther.
func NormMethod(raw string) string {
	if m, ok := methodCanon[fold(raw)]; ok {
		return m
	}
	return MethodOther
}

// NormSource maps a free-text provenance tag onto the canonical set.
// Unknown or empty input yields SourceManual.
func NormSource(raw string) string {
	if s, ok := sourceCanon[fold(raw)]; ok {
		return s
	}
	return SourceManual
}

// IsMethod reports whether m is already canonical.
func IsMethod(m string) bool {
	switch m {
	case MethodCash, MethodPOS, MethodTransfer, MethodOnline, MethodOther:
		return true
	}
	return false
}

// NormCurrency upper-cases and trims a currency code and reports whether
// it is supported.  Empty input is reported as unsupported.
func NormCurrency(raw string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(raw))
	return c, currencies[c]
}

// fold lower-cases s, strips combining marks, maps the Turkish dotless i
// and collapses inner whitespace, so "  Kredi  KARTI " and "kredi kartı"
// fold to the same key.
func fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Fold(), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = strings.ToLower(s)
	}
	out = strings.Map(func(r rune) rune {
		if r == 'ı' {
			return 'i'
		}
		return r
	}, out)
	return strings.Join(strings.Fields(out), " ")
}
