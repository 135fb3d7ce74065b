package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

// InventoryService edits and previews the per-day inventory of room types.
type InventoryService struct {
	roomTypes *repository.RoomTypeRepo
	inventory *repository.InventoryRepo
	logger    logrus.FieldLogger
}

func NewInventoryService(roomTypes *repository.RoomTypeRepo, inv *repository.InventoryRepo, logger logrus.FieldLogger) *InventoryService {
	return &InventoryService{roomTypes: roomTypes, inventory: inv, logger: logger}
}

// CalendarDay is one day of the inventory calendar.  Price and Allotment
// are nil when the day was never configured; the Effective fields show
// what a quote would use.
type CalendarDay struct {
	Date               string           `json:"date"`
	Price              *decimal.Decimal `json:"price"`
	Allotment          *int             `json:"allotment"`
	StopSell           bool             `json:"stop_sell"`
	EffectivePrice     decimal.Decimal  `json:"effective_price"`
	EffectiveAllotment int              `json:"effective_allotment"`
}

func (s *InventoryService) roomType(ctx context.Context, ac auth.Context, id uint64) (model.RoomType, error) {
	scope, err := ac.ReadScope(nil)
	if err != nil {
		return model.RoomType{}, err
	}
	return s.roomTypes.GetByID(ctx, scope, id)
}

// Calendar lists the days in [start, end) of a room type.
func (s *InventoryService) Calendar(ctx context.Context, ac auth.Context, roomTypeID uint64, start, end time.Time) ([]CalendarDay, error) {
	if err := inventory.CheckRange(start, end); err != nil {
		return nil, err
	}
	rt, err := s.roomType(ctx, ac, roomTypeID)
	if err != nil {
		return nil, err
	}
	rows, err := s.inventory.ListRange(ctx, nil, rt.ID, start, end)
	if err != nil {
		return nil, err
	}
	days := inventory.Days(start, end)
	out := make([]CalendarDay, 0, len(days))
	for _, d := range days {
		key := inventory.FormatDay(d)
		cd := CalendarDay{Date: key, EffectivePrice: rt.BasePrice, EffectiveAllotment: inventory.EffectiveAllotment(rt, nil)}
		if row, ok := rows[key]; ok {
			allot := row.Allotment
			cd.Price = row.Price
			cd.Allotment = &allot
			cd.StopSell = row.StopSell
			cd.EffectiveAllotment = inventory.EffectiveAllotment(rt, &row)
			if row.Price != nil {
				cd.EffectivePrice = *row.Price
			}
		}
		out = append(out, cd)
	}
	return out, nil
}

// ApplyRange writes p to every day in [start, end) in one transaction and
// returns the number of days written.  An empty range is a no-op.
func (s *InventoryService) ApplyRange(ctx context.Context, ac auth.Context, roomTypeID uint64, start, end time.Time, p inventory.Patch) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if err := inventory.CheckRange(start, end); err != nil {
		return 0, err
	}
	rt, err := s.roomType(ctx, ac, roomTypeID)
	if err != nil {
		return 0, err
	}
	days := inventory.Days(start, end)
	if len(days) == 0 {
		return 0, nil
	}
	return s.applySegments(ctx, rt, [][]time.Time{days}, p)
}

// ApplyWeekdays writes p to the days of the inclusive range [start, end]
// whose weekday is listed.  All segments commit together.
func (s *InventoryService) ApplyWeekdays(ctx context.Context, ac auth.Context, roomTypeID uint64, start, end time.Time, weekdays []time.Weekday, p inventory.Patch) ([]inventory.Segment, int, error) {
	if err := p.Validate(); err != nil {
		return nil, 0, err
	}
	if len(weekdays) == 0 {
		return nil, 0, invalid("weekdays", "at least one weekday is required")
	}
	for _, w := range weekdays {
		if w < time.Sunday || w > time.Saturday {
			return nil, 0, invalid("weekdays", "must be between 0 (Sunday) and 6 (Saturday)")
		}
	}
	if err := inventory.CheckRange(start, end); err != nil {
		return nil, 0, err
	}
	rt, err := s.roomType(ctx, ac, roomTypeID)
	if err != nil {
		return nil, 0, err
	}
	segs := inventory.Segments(start, end, weekdays)
	if len(segs) == 0 {
		return segs, 0, nil
	}
	batches := make([][]time.Time, 0, len(segs))
	for _, seg := range segs {
		batches = append(batches, inventory.Days(seg.Start, seg.End))
	}
	n, err := s.applySegments(ctx, rt, batches, p)
	if err != nil {
		return nil, 0, err
	}
	return segs, n, nil
}

func (s *InventoryService) applySegments(ctx context.Context, rt model.RoomType, batches [][]time.Time, p inventory.Patch) (int, error) {
	tx, err := s.roomTypes.DB().BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	total := 0
	for _, days := range batches {
		n, err := s.inventory.ApplyRangeTx(ctx, tx, rt.ID, days, p)
		if err != nil {
			return 0, err
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true

	s.logger.WithFields(logrus.Fields{
		"hotel_id":     rt.HotelID,
		"room_type_id": rt.ID,
		"days":         total,
		"segments":     len(batches),
	}).Info("inventory updated")
	return total, nil
}
