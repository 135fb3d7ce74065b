package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// Booking is the part of a reservation that consumes inventory.
type Booking struct {
	CheckIn  time.Time
	CheckOut time.Time
	Rooms    int
}

// DayQuote is the availability of one night.
type DayQuote struct {
	Date      string          `json:"date"`
	Allotment int             `json:"allotment"`
	Used      int             `json:"used"`
	Remaining int             `json:"remaining"`
	StopSell  bool            `json:"stop_sell"`
	Price     decimal.Decimal `json:"price"`
}

// Quote answers whether rooms can be sold for every night of a stay.
type Quote struct {
	Nights              int             `json:"nights"`
	Rooms               int             `json:"rooms"`
	Available           bool            `json:"available"`
	SuggestedTotalPrice decimal.Decimal `json:"suggested_total_price"`
	RemainingPerDay     []DayQuote      `json:"remaining_per_day"`
}

// EffectiveAllotment is the number of rooms sellable on a day.  A stored
// allotment is capped by the physical room count, zero included; a day that
// was never configured sells the whole room type.
func EffectiveAllotment(rt model.RoomType, row *model.InventoryDay) int {
	limit := rt.TotalRooms
	if limit < 0 {
		limit = 0
	}
	if row == nil || row.Allotment > limit {
		return limit
	}
	return row.Allotment
}

// BuildQuote computes the quote for the nights in days.  rows is keyed by
// FormatDay; bookings must already exclude cancelled reservations.  The
// stay is available only if every night has at least rooms remaining.
func BuildQuote(rt model.RoomType, days []time.Time, rows map[string]model.InventoryDay, bookings []Booking, rooms int) Quote {
	q := Quote{
		Nights:              len(days),
		Rooms:               rooms,
		Available:           true,
		SuggestedTotalPrice: decimal.Zero,
		RemainingPerDay:     make([]DayQuote, 0, len(days)),
	}
	for _, d := range days {
		key := FormatDay(d)
		var rowPtr *model.InventoryDay
		if row, ok := rows[key]; ok {
			rowPtr = &row
		}

		used := 0
		for _, b := range bookings {
			if !d.Before(Truncate(b.CheckIn)) && d.Before(Truncate(b.CheckOut)) {
				used += b.Rooms
			}
		}

		allot := EffectiveAllotment(rt, rowPtr)
		remaining := allot - used
		if remaining < 0 {
			remaining = 0
		}
		stop := rowPtr != nil && rowPtr.StopSell
		if stop {
			remaining = 0
		}

		price := rt.BasePrice
		if rowPtr != nil && rowPtr.Price != nil {
			price = *rowPtr.Price
		}

		if remaining < rooms {
			q.Available = false
		}
		q.SuggestedTotalPrice = q.SuggestedTotalPrice.Add(price.Mul(decimal.NewFromInt(int64(rooms))))
		q.RemainingPerDay = append(q.RemainingPerDay, DayQuote{
			Date:      key,
			Allotment: allot,
			Used:      used,
			Remaining: remaining,
			StopSell:  stop,
			Price:     price,
		})
	}
	return q
}
