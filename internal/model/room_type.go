package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoomType is a sellable category of rooms inside a hotel.  TotalRooms is
// the physical room count and the ceiling for any day's allotment.
// Room types are deactivated rather than deleted because reservations
// keep referencing them.
//
// Fields:
//
//	ID               – primary key identifier.
//	HotelID          – owning hotel.
//	Code             – upper-case code, unique per hotel.
//	Name             – display name.
//	BasePrice        – nightly price used when a day has no price override.
//	CapacityAdults   – maximum adults per room.
//	CapacityChildren – maximum children per room.
//	TotalRooms       – number of physical rooms of this type.
//	Active           – whether the type can be sold.
type RoomType struct {
	ID               uint64          `json:"id"`                // room_types.id
	HotelID          uint64          `json:"hotel_id"`          // room_types.hotel_id
	Code             string          `json:"code"`              // room_types.code
	Name             string          `json:"name"`              // room_types.name
	BasePrice        decimal.Decimal `json:"base_price"`        // room_types.base_price
	CapacityAdults   int             `json:"capacity_adults"`   // room_types.capacity_adults
	CapacityChildren int             `json:"capacity_children"` // room_types.capacity_children
	TotalRooms       int             `json:"total_rooms"`       // room_types.total_rooms
	Active           bool            `json:"active"`            // room_types.active
	CreatedAt        time.Time       `json:"created_at"`        // room_types.created_at
	UpdatedAt        time.Time       `json:"updated_at"`        // room_types.updated_at
}
