package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger entry directions.
const (
	EntryIncome  = "income"
	EntryExpense = "expense"
)

// LedgerEntry is one row of the hotel's cash book.  Entries derived from
// reservations carry a UniqueKey so that re-deriving the same payment never
// inserts it twice; manual entries usually have none.
//
// Fields:
//
//	ID            – primary key identifier.
//	HotelID       – owning hotel.
//	Type          – income or expense.
//	Method        – canonical payment method.
//	Category      – free-form reporting category.
//	Date          – booking date of the entry (UTC midnight).
//	Amount        – absolute amount in Currency.
//	Currency      – TRY, USD, EUR or GBP.
//	FxRate        – rate from Currency to the base currency.
//	AmountInBase  – Amount × FxRate rounded to 2 places.
//	Source        – canonical provenance tag.
//	ReservationID – originating reservation, when derived.
//	UniqueKey     – idempotency key (nullable).
type LedgerEntry struct {
	ID            uint64          `json:"id"`
	HotelID       uint64          `json:"hotel_id"`
	Type          string          `json:"type"`
	Method        string          `json:"method"`
	Category      string          `json:"category"`
	Date          time.Time       `json:"-"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	FxRate        decimal.Decimal `json:"fx_rate"`
	AmountInBase  decimal.Decimal `json:"amount_in_base"`
	Note          string          `json:"note"`
	Ref           string          `json:"ref"`
	Source        string          `json:"source"`
	ReservationID *uint64         `json:"reservation_id,omitempty"`
	GuestName     string          `json:"guest_name,omitempty"`
	Channel       string          `json:"channel,omitempty"`
	UniqueKey     *string         `json:"unique_key,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
