package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryDay holds the per-day sell settings of a room type.  There is
// at most one row per (room type, day).  A nil Price means the room type's
// base price applies on that day.
type InventoryDay struct {
	RoomTypeID uint64           `json:"room_type_id"` // inventory_days.room_type_id
	Day        time.Time        `json:"-"`            // inventory_days.day (UTC midnight)
	Price      *decimal.Decimal `json:"price"`        // inventory_days.price (nullable)
	Allotment  int              `json:"allotment"`    // inventory_days.allotment
	StopSell   bool             `json:"stop_sell"`    // inventory_days.stop_sell
}
