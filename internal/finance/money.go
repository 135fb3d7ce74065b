package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// AmountInBase converts amount to the base currency and rounds half away
// from zero to two places, so 33.335 becomes 33.34.
func AmountInBase(amount, fxRate decimal.Decimal) decimal.Decimal {
	return amount.Mul(fxRate).Round(2)
}

// FieldError reports a ledger field that cannot be stored.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Reason) }

// Canonicalize brings a ledger entry into its storable form.  Every write
// path (single create, idempotent bulk insert, update) runs it, so method
// and source always hold canonical values and AmountInBase always matches
// Amount × FxRate.
func Canonicalize(e *model.LedgerEntry) error {
	e.Type = strings.ToLower(strings.TrimSpace(e.Type))
	if e.Type != model.EntryIncome && e.Type != model.EntryExpense {
		return &FieldError{Field: "type", Reason: "must be income or expense"}
	}
	e.Method = NormMethod(e.Method)
	e.Source = NormSource(e.Source)

	cur := BaseCurrency
	if strings.TrimSpace(e.Currency) != "" {
		c, ok := NormCurrency(e.Currency)
		if !ok {
			return &FieldError{Field: "currency", Reason: "unsupported currency " + c}
		}
		cur = c
	}
	e.Currency = cur

	if e.Amount.IsNegative() {
		return &FieldError{Field: "amount", Reason: "must be >= 0"}
	}
	if e.FxRate.IsNegative() {
		return &FieldError{Field: "fx_rate", Reason: "must be >= 0"}
	}
	if e.Currency == BaseCurrency || e.FxRate.IsZero() {
		e.FxRate = decimal.NewFromInt(1)
	}
	e.AmountInBase = AmountInBase(e.Amount, e.FxRate)

	e.Category = strings.TrimSpace(e.Category)
	if e.Category == "" {
		e.Category = "General"
	}
	e.Note = strings.TrimSpace(e.Note)
	e.Ref = strings.TrimSpace(e.Ref)
	if e.Date.IsZero() {
		e.Date = time.Now().UTC()
	}
	e.Date = Day(e.Date)
	if e.UniqueKey != nil && strings.TrimSpace(*e.UniqueKey) == "" {
		e.UniqueKey = nil
	}
	return nil
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
