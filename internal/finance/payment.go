package finance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// Payment is a captured payment record in canonical form.  Amount is
// signed: refunds are negative.
type Payment struct {
	Amount   decimal.Decimal
	Currency string
	FxRate   decimal.Decimal
	Date     time.Time
	Method   string
	Refund   bool
	Ref      string
}

// Kind is "refund" or "payment".
func (p Payment) Kind() string {
	if p.Refund {
		return "refund"
	}
	return "payment"
}

// Fallback supplies the values a record inherits from its reservation.
type Fallback struct {
	Currency string
	FxRate   decimal.Decimal
	Date     time.Time
}

var refundWords = []string{"refund", "iade", "geri odeme"}

func looksRefund(s string) bool {
	f := fold(s)
	if f == "" {
		return false
	}
	for _, w := range refundWords {
		if strings.Contains(f, w) {
			return true
		}
	}
	return false
}

// NormalizePayment reads a record whatever field names it was captured
// with.  A record is a refund when its kind or type mentions a refund
// word, or when its amount is negative.
func NormalizePayment(raw model.PaymentRecord, fb Fallback) Payment {
	amt := decimal.Zero
	switch {
	case raw.Amount != nil:
		amt = *raw.Amount
	case raw.Total != nil:
		amt = *raw.Total
	case raw.Paid != nil:
		amt = *raw.Paid
	}
	refund := looksRefund(raw.Kind) || looksRefund(raw.Type) || amt.IsNegative()
	amt = amt.Abs()
	if refund {
		amt = amt.Neg()
	}

	cur, ok := NormCurrency(raw.Currency)
	if !ok {
		cur, ok = NormCurrency(fb.Currency)
		if !ok {
			cur = BaseCurrency
		}
	}

	var fx decimal.Decimal
	switch {
	case raw.FxRate != nil:
		fx = *raw.FxRate
	case raw.Rate != nil:
		fx = *raw.Rate
	default:
		fx = fb.FxRate
	}
	if cur == BaseCurrency || !fx.IsPositive() {
		fx = decimal.NewFromInt(1)
	}

	date, ok := parseDate(raw.Date)
	if !ok {
		date, ok = parseDate(raw.CreatedAt)
	}
	if !ok {
		date = fb.Date
	}

	return Payment{
		Amount:   amt,
		Currency: cur,
		FxRate:   fx,
		Date:     Day(date),
		Method:   NormMethod(firstNonEmpty(raw.Method, raw.PayMethod, raw.Channel, raw.Type)),
		Refund:   refund,
		Ref:      strings.TrimSpace(raw.ID),
	}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
