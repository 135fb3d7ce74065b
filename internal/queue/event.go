// Package queue defines the reservation events exchanged over RabbitMQ
// together with their publisher and consumer.
package queue

// ReservationConfirmedQueue carries ReservationConfirmedEvent messages.
const ReservationConfirmedQueue = "reservation.confirmed"

// ReservationConfirmedEvent is published when a reservation is created as
// confirmed or moves to confirmed.  Consumers re-derive the ledger of the
// reservation; the remaining fields let them log without a database read.
type ReservationConfirmedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	HotelID       uint64 `json:"hotel_id"`
	RoomTypeID    uint64 `json:"room_type_id"`
	GuestName     string `json:"guest_name"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	Rooms         int    `json:"rooms"`
	TotalPrice    string `json:"total_price"`
	Currency      string `json:"currency"`
	Channel       string `json:"channel"`
	ConfirmedAt   string `json:"confirmed_at"`
}
