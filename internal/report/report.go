// Package report computes the dashboard figures from reservations.  It is
// pure: callers load the data, Summarize only counts.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation/internal/finance"
	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

// TopHotelsLimit caps the hotel ranking.
const TopHotelsLimit = 10

// Input is everything Summarize needs.  Start and End are inclusive days.
type Input struct {
	Today        time.Time
	Start, End   time.Time
	Hotels       []model.Hotel
	RoomTypes    int
	TotalRooms   int
	Reservations []model.Reservation
}

// Window returns the stay range Reservations must cover for Summarize to
// see every figure: the selected range, the month so far and the last 30
// days.
func Window(today, start, end time.Time) (time.Time, time.Time) {
	today = inventory.Truncate(today)
	from := inventory.Truncate(start)
	if m := monthStart(today); m.Before(from) {
		from = m
	}
	if l := today.AddDate(0, 0, -29); l.Before(from) {
		from = l
	}
	to := inventory.Truncate(end).AddDate(0, 0, 1)
	if t := today.AddDate(0, 0, 1); t.After(to) {
		to = t
	}
	return from, to
}

type Totals struct {
	Hotels    int `json:"hotels"`
	RoomTypes int `json:"room_types"`
	Rooms     int `json:"rooms"`
}

type Today struct {
	InHouse      int `json:"inhouse"`
	Arrivals     int `json:"arrivals"`
	Departures   int `json:"departures"`
	OccupancyPct int `json:"occupancy_pct"`
}

type MonthToDate struct {
	Revenue    decimal.Decimal `json:"revenue"`
	RoomNights int             `json:"room_nights"`
	ADR        decimal.Decimal `json:"adr"`
	RevPAR     decimal.Decimal `json:"revpar"`
}

type DayAmount struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

type LabelAmount struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// Movement is one arrival or departure of today.
type Movement struct {
	ReservationID uint64 `json:"reservation_id"`
	Guest         string `json:"guest"`
	Nights        int    `json:"nights"`
	Rooms         int    `json:"rooms"`
	Channel       string `json:"channel"`
	Date          string `json:"date"`
}

// Summary is the dashboard payload.  Money is in the base currency.
type Summary struct {
	Totals          Totals        `json:"totals"`
	Today           Today         `json:"today"`
	MTD             MonthToDate   `json:"mtd"`
	DailyRevenue    []DayAmount   `json:"daily_revenue"`
	ChannelLast30   []LabelAmount `json:"channel_last30"`
	TopHotels       []LabelAmount `json:"top_hotels_by_revenue"`
	TodayArrivals   []Movement    `json:"today_arrivals"`
	TodayDepartures []Movement    `json:"today_departures"`
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func baseTotal(r model.Reservation) decimal.Decimal {
	fx := r.FxRate
	if r.Currency == "" || r.Currency == finance.BaseCurrency || !fx.IsPositive() {
		fx = decimal.NewFromInt(1)
	}
	return finance.AmountInBase(r.TotalPrice, fx)
}

// overlapNights counts the nights of r inside [from, to).
func overlapNights(r model.Reservation, from, to time.Time) int {
	s, e := r.CheckIn, r.CheckOut
	if s.Before(from) {
		s = from
	}
	if e.After(to) {
		e = to
	}
	if !e.After(s) {
		return 0
	}
	return inventory.DaysBetween(s, e)
}

func movement(r model.Reservation, date time.Time) Movement {
	guest := r.GuestName
	if guest == "" {
		guest = "Guest"
	}
	ch := r.Channel
	if ch == "" {
		ch = model.ChannelDirect
	}
	return Movement{
		ReservationID: r.ID,
		Guest:         guest,
		Nights:        r.Nights(),
		Rooms:         r.Rooms,
		Channel:       ch,
		Date:          inventory.FormatDay(date),
	}
}

func ranked(sums map[string]decimal.Decimal, limit int) []LabelAmount {
	out := make([]LabelAmount, 0, len(sums))
	for k, v := range sums {
		out = append(out, LabelAmount{Label: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Value.Cmp(out[j].Value); c != 0 {
			return c > 0
		}
		return out[i].Label < out[j].Label
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Summarize computes the dashboard.  Cancelled reservations are ignored.
// Month-to-date revenue is prorated by the nights that fall inside the
// month so far; daily revenue books the whole stay on its check-in day.
func Summarize(in Input) Summary {
	today := inventory.Truncate(in.Today)
	tomorrow := today.AddDate(0, 0, 1)
	start, end := inventory.Truncate(in.Start), inventory.Truncate(in.End)
	mStart := monthStart(today)
	last30 := today.AddDate(0, 0, -29)

	s := Summary{
		Totals:          Totals{Hotels: len(in.Hotels), RoomTypes: in.RoomTypes, Rooms: in.TotalRooms},
		MTD:             MonthToDate{Revenue: decimal.Zero, ADR: decimal.Zero, RevPAR: decimal.Zero},
		TodayArrivals:   []Movement{},
		TodayDepartures: []Movement{},
	}

	daily := make(map[string]decimal.Decimal)
	channels := make(map[string]decimal.Decimal)
	byHotel := make(map[uint64]decimal.Decimal)
	roomsInHouse := 0

	for _, r := range in.Reservations {
		if r.Status == model.StatusCancelled {
			continue
		}
		r.CheckIn, r.CheckOut = inventory.Truncate(r.CheckIn), inventory.Truncate(r.CheckOut)
		total := baseTotal(r)

		if !r.CheckIn.After(today) && r.CheckOut.After(today) {
			s.Today.InHouse++
			roomsInHouse += r.Rooms
		}
		if r.CheckIn.Equal(today) {
			s.Today.Arrivals++
			s.TodayArrivals = append(s.TodayArrivals, movement(r, r.CheckIn))
		}
		if r.CheckOut.Equal(today) {
			s.Today.Departures++
			s.TodayDepartures = append(s.TodayDepartures, movement(r, r.CheckOut))
		}

		if inside := overlapNights(r, mStart, tomorrow); inside > 0 {
			s.MTD.RoomNights += inside * r.Rooms
			if n := r.Nights(); n > 0 {
				s.MTD.Revenue = s.MTD.Revenue.Add(total.Mul(decimal.NewFromInt(int64(inside))).Div(decimal.NewFromInt(int64(n))))
			}
		}

		if !r.CheckIn.Before(start) && !r.CheckIn.After(end) {
			key := inventory.FormatDay(r.CheckIn)
			daily[key] = daily[key].Add(total)
		}
		if !r.CheckIn.Before(last30) && !r.CheckIn.After(today) {
			ch := r.Channel
			if ch == "" {
				ch = model.ChannelDirect
			}
			channels[ch] = channels[ch].Add(total)
		}
		if overlapNights(r, start, end.AddDate(0, 0, 1)) > 0 {
			byHotel[r.HotelID] = byHotel[r.HotelID].Add(total)
		}
	}

	if in.TotalRooms > 0 {
		pct := roomsInHouse * 100 / in.TotalRooms
		if pct > 100 {
			pct = 100
		}
		s.Today.OccupancyPct = pct
	}

	s.MTD.Revenue = s.MTD.Revenue.Round(2)
	if s.MTD.RoomNights > 0 {
		s.MTD.ADR = s.MTD.Revenue.Div(decimal.NewFromInt(int64(s.MTD.RoomNights))).Round(2)
	}
	daysSoFar := inventory.DaysBetween(mStart, tomorrow)
	if in.TotalRooms > 0 && daysSoFar > 0 {
		s.MTD.RevPAR = s.MTD.Revenue.Div(decimal.NewFromInt(int64(in.TotalRooms * daysSoFar))).Round(2)
	}

	if !end.Before(start) {
		for _, d := range inventory.Days(start, end.AddDate(0, 0, 1)) {
			key := inventory.FormatDay(d)
			total, ok := daily[key]
			if !ok {
				total = decimal.Zero
			}
			s.DailyRevenue = append(s.DailyRevenue, DayAmount{Date: key, Total: total})
		}
	}

	s.ChannelLast30 = ranked(channels, 0)

	names := make(map[uint64]string, len(in.Hotels))
	for _, h := range in.Hotels {
		names[h.ID] = fmt.Sprintf("%s (%s)", h.Name, h.Code)
	}
	hotelSums := make(map[string]decimal.Decimal, len(byHotel))
	for id, v := range byHotel {
		label, ok := names[id]
		if !ok {
			label = fmt.Sprintf("Hotel #%d", id)
		}
		hotelSums[label] = v
	}
	s.TopHotels = ranked(hotelSums, TopHotelsLimit)
	return s
}
