package service

import (
	"context"
	"time"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

// AvailabilityService answers stay quotes.  It never writes.
type AvailabilityService struct {
	roomTypes    *repository.RoomTypeRepo
	inventory    *repository.InventoryRepo
	reservations *repository.ReservationRepo
}

func NewAvailabilityService(roomTypes *repository.RoomTypeRepo, inv *repository.InventoryRepo, reservations *repository.ReservationRepo) *AvailabilityService {
	return &AvailabilityService{roomTypes: roomTypes, inventory: inv, reservations: reservations}
}

func checkStay(start, end time.Time, rooms int) error {
	if rooms < 1 {
		return invalid("rooms", "must be >= 1")
	}
	if !end.After(start) {
		return invalid("end", "must be after start")
	}
	return inventory.CheckRange(start, end)
}

// Quote reports per-night availability and the suggested price of rooms
// rooms of a room type for the nights in [start, end).
func (s *AvailabilityService) Quote(ctx context.Context, ac auth.Context, roomTypeID uint64, start, end time.Time, rooms int) (inventory.Quote, error) {
	if err := checkStay(start, end, rooms); err != nil {
		return inventory.Quote{}, err
	}
	scope, err := ac.ReadScope(nil)
	if err != nil {
		return inventory.Quote{}, err
	}
	rt, err := s.roomTypes.GetByID(ctx, scope, roomTypeID)
	if err != nil {
		return inventory.Quote{}, err
	}
	return quote(ctx, nil, s.inventory, s.reservations, rt, start, end, rooms, 0)
}

// quote assembles a quote from q, which is a transaction when the caller
// is about to commit a reservation.
func quote(ctx context.Context, q repository.DBTX, inv *repository.InventoryRepo, res *repository.ReservationRepo,
	rt model.RoomType, start, end time.Time, rooms int, excludeID uint64) (inventory.Quote, error) {
	start, end = inventory.Truncate(start), inventory.Truncate(end)
	rows, err := inv.ListRange(ctx, q, rt.ID, start, end)
	if err != nil {
		return inventory.Quote{}, err
	}
	bookings, err := res.CommittedTx(ctx, q, rt.ID, start, end, excludeID)
	if err != nil {
		return inventory.Quote{}, err
	}
	return inventory.BuildQuote(rt, inventory.Days(start, end), rows, bookings, rooms), nil
}
