package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/finance"
	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/queue"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

// EventPublisher sends reservation events to the broker.
type EventPublisher interface {
	PublishReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}

// roomTypeLockTTL bounds how long one commit may hold the Redis lock of a
// room type.
const roomTypeLockTTL = 10 * time.Second

// ReservationService commits reservations against inventory.  Commits for
// one room type are serialized by a row lock on the room type taken inside
// the transaction, and the quote is recomputed under that lock.  A Redis
// lock on the same room type is taken first when Redis is available.
type ReservationService struct {
	roomTypes    *repository.RoomTypeRepo
	inventory    *repository.InventoryRepo
	reservations *repository.ReservationRepo
	locker       *redislock.Client
	publisher    EventPublisher
	logger       logrus.FieldLogger
}

func NewReservationService(roomTypes *repository.RoomTypeRepo, inv *repository.InventoryRepo, reservations *repository.ReservationRepo,
	locker *redislock.Client, publisher EventPublisher, logger logrus.FieldLogger) *ReservationService {
	return &ReservationService{
		roomTypes:    roomTypes,
		inventory:    inv,
		reservations: reservations,
		locker:       locker,
		publisher:    publisher,
		logger:       logger,
	}
}

// prepare normalizes r in place and rejects invalid values.
func prepare(r *model.Reservation) error {
	r.GuestName = strings.TrimSpace(r.GuestName)
	r.GuestEmail = strings.ToLower(strings.TrimSpace(r.GuestEmail))
	r.GuestPhone = strings.TrimSpace(r.GuestPhone)
	r.Notes = strings.TrimSpace(r.Notes)
	if r.GuestName == "" {
		return invalid("guest_name", "is required")
	}
	if r.RoomTypeID == 0 {
		return invalid("room_type_id", "is required")
	}
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		return invalid("check_in", "check_in and check_out are required")
	}
	r.CheckIn, r.CheckOut = inventory.Truncate(r.CheckIn), inventory.Truncate(r.CheckOut)
	if !r.CheckOut.After(r.CheckIn) {
		return invalid("check_out", "must be after check_in")
	}
	if err := inventory.CheckRange(r.CheckIn, r.CheckOut); err != nil {
		return err
	}
	if r.Rooms < 1 {
		return invalid("rooms", "must be >= 1")
	}
	if r.Adults == 0 {
		r.Adults = 1
	}
	if r.Adults < 0 || r.Children < 0 {
		return invalid("adults", "guest counts must not be negative")
	}

	r.Channel = strings.ToLower(strings.TrimSpace(r.Channel))
	if r.Channel == "" {
		r.Channel = model.ChannelDirect
	}
	if !model.IsValidChannel(r.Channel) {
		return invalid("channel", "must be one of direct, airbnb, booking, etstur")
	}
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
	if r.Status == "" {
		r.Status = model.StatusConfirmed
	}
	if !model.IsValidStatus(r.Status) {
		return invalid("status", "must be one of pending, confirmed, cancelled")
	}

	if strings.TrimSpace(r.Currency) == "" {
		r.Currency = finance.BaseCurrency
	}
	cur, ok := finance.NormCurrency(r.Currency)
	if !ok {
		return invalid("currency", "unsupported currency "+cur)
	}
	r.Currency = cur
	if r.FxRate.IsNegative() {
		return invalid("fx_rate", "must be >= 0")
	}
	if r.Currency == finance.BaseCurrency || r.FxRate.IsZero() {
		r.FxRate = decimal.NewFromInt(1)
	}
	if r.TotalPrice.IsNegative() {
		return invalid("total_price", "must be >= 0")
	}
	if r.DepositAmount.IsNegative() {
		return invalid("deposit_amount", "must be >= 0")
	}
	if r.DepositDate != nil {
		if r.DepositDate.IsZero() {
			r.DepositDate = nil
		} else {
			d := inventory.Truncate(*r.DepositDate)
			r.DepositDate = &d
		}
	}
	r.PaymentMethod = strings.TrimSpace(r.PaymentMethod)
	if r.PaymentMethod != "" {
		r.PaymentMethod = finance.NormMethod(r.PaymentMethod)
	}
	r.PaymentStatus = strings.ToLower(strings.TrimSpace(r.PaymentStatus))
	return nil
}

// lockRoomType takes the Redis lock of a room type when possible.  Failing
// to lock is logged and ignored; the row lock still serializes commits.
func (s *ReservationService) lockRoomType(ctx context.Context, roomTypeID uint64) func() {
	if s.locker == nil {
		return func() {}
	}
	key := fmt.Sprintf("lock:room-type:%d", roomTypeID)
	lock, err := s.locker.Obtain(ctx, key, roomTypeLockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 40),
	})
	if err != nil {
		if !errors.Is(err, redislock.ErrNotObtained) {
			s.logger.WithError(err).WithField("key", key).Warn("redis lock unavailable")
		}
		return func() {}
	}
	return func() { _ = lock.Release(context.Background()) }
}

func (s *ReservationService) begin(ctx context.Context) (*sql.Tx, error) {
	return s.reservations.DB().BeginTx(ctx, &sql.TxOptions{})
}

// checkCapacity locks the room type row and quotes the stay inside tx.
func (s *ReservationService) checkCapacity(ctx context.Context, tx *sql.Tx, r *model.Reservation, excludeID uint64) (inventory.Quote, error) {
	rt, err := s.roomTypes.LockTx(ctx, tx, r.RoomTypeID)
	if err != nil {
		return inventory.Quote{}, err
	}
	q, err := quote(ctx, tx, s.inventory, s.reservations, rt, r.CheckIn, r.CheckOut, r.Rooms, excludeID)
	if err != nil {
		return q, err
	}
	if !q.Available {
		return q, &CapacityError{Quote: q}
	}
	return q, nil
}

// roomTypeInHotel verifies that the room type exists, is active and
// belongs to hotelID.
func (s *ReservationService) roomTypeInHotel(ctx context.Context, hotelID, roomTypeID uint64) error {
	rt, err := s.roomTypes.GetByID(ctx, auth.Scope{HotelIDs: []uint64{hotelID}}, roomTypeID)
	if errors.Is(err, repository.ErrNotFound) {
		return invalid("room_type_id", "unknown room type")
	}
	if err != nil {
		return err
	}
	if !rt.Active {
		return invalid("room_type_id", "room type is inactive")
	}
	return nil
}

// Create validates and commits a new reservation.  A missing total price
// is filled with the quote's suggested price.
func (s *ReservationService) Create(ctx context.Context, ac auth.Context, in model.Reservation) (model.Reservation, error) {
	hotelID, err := ac.WriteHotel(in.HotelID)
	if err != nil {
		return model.Reservation{}, err
	}
	in.ID = 0
	in.HotelID = hotelID
	if err := prepare(&in); err != nil {
		return model.Reservation{}, err
	}
	if err := s.roomTypeInHotel(ctx, hotelID, in.RoomTypeID); err != nil {
		return model.Reservation{}, err
	}

	release := s.lockRoomType(ctx, in.RoomTypeID)
	defer release()

	tx, err := s.begin(ctx)
	if err != nil {
		return model.Reservation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if in.Status != model.StatusCancelled {
		q, err := s.checkCapacity(ctx, tx, &in, 0)
		if err != nil {
			return model.Reservation{}, err
		}
		if in.TotalPrice.IsZero() {
			in.TotalPrice = q.SuggestedTotalPrice
		}
	}
	if err := s.reservations.CreateTx(ctx, tx, &in); err != nil {
		return model.Reservation{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	committed = true

	s.logger.WithFields(logrus.Fields{
		"hotel_id":       in.HotelID,
		"reservation_id": in.ID,
		"room_type_id":   in.RoomTypeID,
		"user_id":        ac.UserID,
	}).Info("reservation created")
	if in.Status == model.StatusConfirmed {
		s.publishConfirmed(ctx, in)
	}
	return in, nil
}

// capacityChanged reports whether moving from old to next can consume
// inventory that old did not already hold.
func capacityChanged(old, next model.Reservation) bool {
	if next.Status == model.StatusCancelled {
		return false
	}
	return old.Status == model.StatusCancelled ||
		old.RoomTypeID != next.RoomTypeID ||
		!old.CheckIn.Equal(next.CheckIn) ||
		!old.CheckOut.Equal(next.CheckOut) ||
		next.Rooms > old.Rooms
}

// Update replaces the stored reservation id with next.  A blank status or
// zero rooms keeps the stored value.  The capacity check
// runs only when the change can consume more inventory, so editing notes on
// an already overbooked stay still succeeds.
func (s *ReservationService) Update(ctx context.Context, ac auth.Context, id uint64, next model.Reservation) (model.Reservation, error) {
	scope, err := ac.ReadScope(nil)
	if err != nil {
		return model.Reservation{}, err
	}
	current, err := s.reservations.GetByID(ctx, scope, id)
	if err != nil {
		return model.Reservation{}, err
	}
	next.ID = id
	next.HotelID = current.HotelID
	if strings.TrimSpace(next.Status) == "" {
		next.Status = current.Status
	}
	if next.Rooms == 0 {
		next.Rooms = current.Rooms
	}
	if err := prepare(&next); err != nil {
		return model.Reservation{}, err
	}
	if next.RoomTypeID != current.RoomTypeID {
		if err := s.roomTypeInHotel(ctx, current.HotelID, next.RoomTypeID); err != nil {
			return model.Reservation{}, err
		}
	}

	release := s.lockRoomType(ctx, next.RoomTypeID)
	defer release()

	tx, err := s.begin(ctx)
	if err != nil {
		return model.Reservation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	old, err := s.reservations.GetForUpdateTx(ctx, tx, scope, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if capacityChanged(old, next) {
		if _, err := s.checkCapacity(ctx, tx, &next, id); err != nil {
			return model.Reservation{}, err
		}
	}
	if err := s.reservations.UpdateTx(ctx, tx, &next); err != nil {
		return model.Reservation{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	committed = true

	s.logger.WithFields(logrus.Fields{
		"hotel_id":       next.HotelID,
		"reservation_id": next.ID,
		"status":         next.Status,
		"user_id":        ac.UserID,
	}).Info("reservation updated")
	if old.Status != model.StatusConfirmed && next.Status == model.StatusConfirmed {
		s.publishConfirmed(ctx, next)
	}
	return next, nil
}

// SetStatus changes only the status of a reservation.
func (s *ReservationService) SetStatus(ctx context.Context, ac auth.Context, id uint64, status string) (model.Reservation, error) {
	scope, err := ac.ReadScope(nil)
	if err != nil {
		return model.Reservation{}, err
	}
	current, err := s.reservations.GetByID(ctx, scope, id)
	if err != nil {
		return model.Reservation{}, err
	}
	current.Status = status
	return s.Update(ctx, ac, id, current)
}

// Get loads one reservation inside the caller's scope.
func (s *ReservationService) Get(ctx context.Context, ac auth.Context, id uint64) (model.Reservation, error) {
	scope, err := ac.ReadScope(nil)
	if err != nil {
		return model.Reservation{}, err
	}
	return s.reservations.GetByID(ctx, scope, id)
}

// List pages through the reservations matching f.  f.Scope is replaced by
// the caller's scope; requested narrows a master's view.
func (s *ReservationService) List(ctx context.Context, ac auth.Context, requested []uint64, f repository.ReservationFilter) ([]model.Reservation, int, error) {
	scope, err := ac.ReadScope(requested)
	if err != nil {
		return nil, 0, err
	}
	f.Scope = scope
	return s.reservations.List(ctx, f)
}

// Delete removes a reservation inside the caller's scope.
func (s *ReservationService) Delete(ctx context.Context, ac auth.Context, id uint64) error {
	scope, err := ac.ReadScope(nil)
	if err != nil {
		return err
	}
	if err := s.reservations.Delete(ctx, scope, id); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"reservation_id": id, "user_id": ac.UserID}).Info("reservation deleted")
	return nil
}

func (s *ReservationService) publishConfirmed(ctx context.Context, r model.Reservation) {
	if s.publisher == nil {
		return
	}
	ev := queue.ReservationConfirmedEvent{
		ReservationID: r.ID,
		HotelID:       r.HotelID,
		RoomTypeID:    r.RoomTypeID,
		GuestName:     r.GuestName,
		CheckIn:       inventory.FormatDay(r.CheckIn),
		CheckOut:      inventory.FormatDay(r.CheckOut),
		Rooms:         r.Rooms,
		TotalPrice:    r.TotalPrice.StringFixed(2),
		Currency:      r.Currency,
		Channel:       r.Channel,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	// Best effort: the cron sync derives the ledger even when the broker is down.
	if err := s.publisher.PublishReservationConfirmed(ctx, ev); err != nil {
		s.logger.WithError(err).WithField("reservation_id", r.ID).Warn("reservation.confirmed not published")
	}
}
