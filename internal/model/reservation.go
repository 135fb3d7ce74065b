package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reservation statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Booking channels.
const (
	ChannelDirect  = "direct"
	ChannelAirbnb  = "airbnb"
	ChannelBooking = "booking"
	ChannelEtstur  = "etstur"
)

// IsValidStatus reports whether s is a known reservation status.
func IsValidStatus(s string) bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCancelled
}

// IsValidChannel reports whether c is a known booking channel.
func IsValidChannel(c string) bool {
	switch c {
	case ChannelDirect, ChannelAirbnb, ChannelBooking, ChannelEtstur:
		return true
	}
	return false
}

// Reservation records a booked stay.  The stay covers the nights in
// [CheckIn, CheckOut).  Cancelled reservations never count against
// availability or occupancy.
//
// Fields:
//
//	ID            – primary key identifier.
//	HotelID       – owning hotel.
//	RoomTypeID    – booked room type.
//	GuestName     – primary guest as typed at booking time.
//	CheckIn       – first night (UTC midnight).
//	CheckOut      – departure day, exclusive.
//	Rooms         – number of rooms booked for every night.
//	Channel       – direct, airbnb, booking or etstur.
//	Status        – pending, confirmed or cancelled.
//	Currency      – currency of TotalPrice and of payments lacking one.
//	FxRate        – default rate for payments lacking one.
//	TotalPrice    – agreed price of the whole stay.
//	DepositAmount – deposit taken when no itemised payments exist.
//	Payments      – payment and refund records as they were captured.
type Reservation struct {
	ID            uint64          `json:"id"`
	HotelID       uint64          `json:"hotel_id"`
	RoomTypeID    uint64          `json:"room_type_id"`
	GuestName     string          `json:"guest_name"`
	GuestEmail    string          `json:"guest_email,omitempty"`
	GuestPhone    string          `json:"guest_phone,omitempty"`
	CheckIn       time.Time       `json:"-"`
	CheckOut      time.Time       `json:"-"`
	Adults        int             `json:"adults"`
	Children      int             `json:"children"`
	Rooms         int             `json:"rooms"`
	Channel       string          `json:"channel"`
	Status        string          `json:"status"`
	Currency      string          `json:"currency"`
	FxRate        decimal.Decimal `json:"fx_rate"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
	DepositDate   *time.Time      `json:"-"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	PaymentStatus string          `json:"payment_status,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Payments      []PaymentRecord `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Nights returns the number of nights of the stay.
func (r Reservation) Nights() int {
	n := int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}

// PaymentRecord is a payment or refund attached to a reservation.  Records
// arrive from several clients and imports, so the same meaning shows up
// under different field names (amount/total/paid, method/payMethod/channel,
// kind/type, fxRate/rate, date/createdAt).  They are stored as captured and
// normalized only when ledger entries are derived.
type PaymentRecord struct {
	ID        string           `json:"id,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Total     *decimal.Decimal `json:"total,omitempty"`
	Paid      *decimal.Decimal `json:"paid,omitempty"`
	Currency  string           `json:"currency,omitempty"`
	FxRate    *decimal.Decimal `json:"fxRate,omitempty"`
	Rate      *decimal.Decimal `json:"rate,omitempty"`
	Date      string           `json:"date,omitempty"`
	CreatedAt string           `json:"createdAt,omitempty"`
	Method    string           `json:"method,omitempty"`
	PayMethod string           `json:"payMethod,omitempty"`
	Channel   string           `json:"channel,omitempty"`
	Kind      string           `json:"kind,omitempty"`
	Type      string           `json:"type,omitempty"`
	Note      string           `json:"note,omitempty"`
}
