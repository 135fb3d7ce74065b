package finance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// Options selects the derivation rules.  The two rules are independent.
type Options struct {
	IncludePayments       bool // one entry per captured payment or refund
	IncludePlannedBalance bool // one planned income for the unpaid balance, dated at check-in
}

// DefaultOptions enables both rules.
func DefaultOptions() Options {
	return Options{IncludePayments: true, IncludePlannedBalance: true}
}

// KindBalance is the unique key kind of planned balance entries.
const KindBalance = "balance"

// UniqueKey builds the idempotency key of a reservation-derived entry:
// res:<reservation>:<kind>:<YYYY-MM-DD>:<absolute amount>[:<external id>].
func UniqueKey(reservationID uint64, kind string, date time.Time, amount decimal.Decimal, extID string) string {
	if kind == "" {
		kind = "payment"
	}
	parts := []string{
		"res",
		strconv.FormatUint(reservationID, 10),
		kind,
		Day(date).Format("2006-01-02"),
		amount.Abs().StringFixed(2),
	}
	if ext := strings.TrimSpace(extID); ext != "" {
		parts = append(parts, ext)
	}
	return strings.Join(parts, ":")
}

// FallbackFor returns the defaults a reservation's payment records inherit.
func FallbackFor(r model.Reservation) Fallback {
	date := r.CreatedAt
	if date.IsZero() {
		date = r.CheckIn
	}
	return Fallback{Currency: r.Currency, FxRate: r.FxRate, Date: date}
}

// EffectivePayments normalizes a reservation's payment records.  A
// reservation with no records but a positive deposit yields a single
// transfer payment for the deposit, dated on the deposit date, else the
// creation date, else check-in.
func EffectivePayments(r model.Reservation) []Payment {
	fb := FallbackFor(r)
	if len(r.Payments) == 0 {
		if !r.DepositAmount.IsPositive() {
			return nil
		}
		date := r.CheckIn
		switch {
		case r.DepositDate != nil && !r.DepositDate.IsZero():
			date = *r.DepositDate
		case !r.CreatedAt.IsZero():
			date = r.CreatedAt
		}
		dep := r.DepositAmount
		return []Payment{NormalizePayment(model.PaymentRecord{
			Amount: &dep,
			Date:   Day(date).Format("2006-01-02"),
			Method: MethodTransfer,
			Type:   "payment",
		}, fb)}
	}
	out := make([]Payment, 0, len(r.Payments))
	for _, p := range r.Payments {
		out = append(out, NormalizePayment(p, fb))
	}
	return out
}

// PaidAmount sums the positive payments of r, expressed in r's currency.
func PaidAmount(r model.Reservation, payments []Payment) decimal.Decimal {
	resCur, ok := NormCurrency(r.Currency)
	if !ok {
		resCur = BaseCurrency
	}
	resFx := r.FxRate
	if resCur == BaseCurrency || !resFx.IsPositive() {
		resFx = decimal.NewFromInt(1)
	}
	paid := decimal.Zero
	for _, p := range payments {
		if !p.Amount.IsPositive() {
			continue
		}
		if p.Currency == resCur {
			paid = paid.Add(p.Amount)
			continue
		}
		paid = paid.Add(AmountInBase(p.Amount, p.FxRate).Div(resFx))
	}
	return paid
}

// DeriveEntries projects reservations into ledger entries.  It is a pure
// function: the same reservations always yield the same entries and the
// same unique keys.  Planned balances are only produced for reservations
// that are not cancelled.
func DeriveEntries(reservations []model.Reservation, opts Options) []model.LedgerEntry {
	var out []model.LedgerEntry
	for _, r := range reservations {
		guest := strings.TrimSpace(r.GuestName)
		if guest == "" {
			guest = "Guest"
		}
		channel := r.Channel
		if channel == "" {
			channel = "-"
		}
		rid := r.ID
		payments := EffectivePayments(r)

		if opts.IncludePayments {
			for _, p := range payments {
				e := model.LedgerEntry{
					HotelID:       r.HotelID,
					Type:          model.EntryIncome,
					Method:        p.Method,
					Category:      "Reservation payment",
					Date:          p.Date,
					Amount:        p.Amount.Abs(),
					Currency:      p.Currency,
					FxRate:        p.FxRate,
					AmountInBase:  AmountInBase(p.Amount.Abs(), p.FxRate),
					Note:          fmt.Sprintf("Payment • %s • %s", guest, channel),
					Ref:           p.Ref,
					Source:        SourceReservationPayment,
					ReservationID: &rid,
					GuestName:     guest,
					Channel:       channel,
				}
				if p.Refund {
					e.Type = model.EntryExpense
					e.Category = "Refund"
					e.Note = fmt.Sprintf("Refund • %s • %s", guest, channel)
					e.Source = SourceReservationRefund
				}
				key := UniqueKey(rid, p.Kind(), p.Date, p.Amount, p.Ref)
				e.UniqueKey = &key
				out = append(out, e)
			}
		}

		if opts.IncludePlannedBalance && !r.CheckIn.IsZero() && r.Status != model.StatusCancelled {
			balance := r.TotalPrice.Sub(PaidAmount(r, payments))
			if balance.IsPositive() {
				balance = balance.Round(2)
				cur, ok := NormCurrency(r.Currency)
				if !ok {
					cur = BaseCurrency
				}
				fx := r.FxRate
				if cur == BaseCurrency || !fx.IsPositive() {
					fx = decimal.NewFromInt(1)
				}
				key := UniqueKey(rid, KindBalance, r.CheckIn, balance, "")
				out = append(out, model.LedgerEntry{
					HotelID:       r.HotelID,
					Type:          model.EntryIncome,
					Method:        MethodTransfer,
					Category:      "Reservation payment",
					Date:          Day(r.CheckIn),
					Amount:        balance,
					Currency:      cur,
					FxRate:        fx,
					AmountInBase:  AmountInBase(balance, fx),
					Note:          fmt.Sprintf("Balance due at check-in • %s • %s", guest, channel),
					Source:        SourceReservationBalance,
					ReservationID: &rid,
					GuestName:     guest,
					Channel:       channel,
					UniqueKey:     &key,
				})
			}
		}
	}
	return out
}
