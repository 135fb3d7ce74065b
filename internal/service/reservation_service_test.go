package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/queue"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

type fakePublisher struct {
	events []queue.ReservationConfirmedEvent
	err    error
}

func (f *fakePublisher) PublishReservationConfirmed(_ context.Context, ev queue.ReservationConfirmedEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

func newReservationService(t *testing.T) (*ReservationService, sqlmock.Sqlmock, *fakePublisher) {
	db, mock := newMock(t)
	logger, _ := test.NewNullLogger()
	pub := &fakePublisher{}
	svc := NewReservationService(repository.NewRoomTypeRepo(db), repository.NewInventoryRepo(db), repository.NewReservationRepo(db),
		nil, pub, logger)
	return svc, mock, pub
}

func newStay(rooms int) model.Reservation {
	return model.Reservation{
		RoomTypeID: 5,
		GuestName:  "  Ada Lovelace ",
		GuestEmail: "ADA@example.com ",
		CheckIn:    mustDay("2024-03-01"),
		CheckOut:   mustDay("2024-03-04"),
		Rooms:      rooms,
	}
}

func expectQuoteReads(mock sqlmock.Sqlmock, committed *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM room_types WHERE id = ? FOR UPDATE")).WithArgs(5).WillReturnRows(roomTypeRow())
	mock.ExpectQuery(regexp.QuoteMeta("FROM inventory_days")).
		WillReturnRows(sqlmock.NewRows([]string{"room_type_id", "day", "price", "allotment", "stop_sell"}))
	mock.ExpectQuery(regexp.QuoteMeta("status <> 'cancelled'")).WillReturnRows(committed)
}

func TestCreateRejectsWhenCapacityIsExhausted(t *testing.T) {
	require := require.New(t)
	svc, mock, pub := newReservationService(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM room_types WHERE id = ? AND hotel_id IN (?)")).WithArgs(5, 7).WillReturnRows(roomTypeRow())
	mock.ExpectBegin()
	expectQuoteReads(mock, sqlmock.NewRows([]string{"check_in", "check_out", "rooms"}).
		AddRow(mustDay("2024-03-02"), mustDay("2024-03-05"), 2))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), hotelAdmin(7), newStay(2))
	var ce *CapacityError
	require.ErrorAs(err, &ce)
	require.False(ce.Quote.Available)
	require.Equal(3, ce.Quote.RemainingPerDay[0].Remaining)
	require.Equal(1, ce.Quote.RemainingPerDay[1].Remaining)
	require.Empty(pub.events)
	require.NoError(mock.ExpectationsWereMet())
}

func TestCreateCommitsAndPublishes(t *testing.T) {
	require := require.New(t)
	svc, mock, pub := newReservationService(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM room_types WHERE id = ? AND hotel_id IN (?)")).WithArgs(5, 7).WillReturnRows(roomTypeRow())
	mock.ExpectBegin()
	expectQuoteReads(mock, sqlmock.NewRows([]string{"check_in", "check_out", "rooms"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).
		WithArgs(7, 5, "Ada Lovelace", "ada@example.com", "", "2024-03-01", "2024-03-04", 1, 0, 2,
			"direct", "confirmed", "TRY", "1", "600", "0", nil, "", "", "", nil).
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ?")).WithArgs(31).
		WillReturnRows(reservationRow(31, model.StatusConfirmed, ""))
	mock.ExpectCommit()

	got, err := svc.Create(context.Background(), hotelAdmin(7), newStay(2))
	require.NoError(err)
	require.Equal(uint64(31), got.ID)
	require.Len(pub.events, 1)
	require.Equal(uint64(31), pub.events[0].ReservationID)
	require.Equal("2024-03-01", pub.events[0].CheckIn)
	require.NoError(mock.ExpectationsWereMet())
}

func TestCreateIgnoresPublishFailure(t *testing.T) {
	require := require.New(t)
	svc, mock, pub := newReservationService(t)
	pub.err = errors.New("broker down")

	mock.ExpectQuery(regexp.QuoteMeta("FROM room_types WHERE id = ? AND hotel_id IN (?)")).WillReturnRows(roomTypeRow())
	mock.ExpectBegin()
	expectQuoteReads(mock, sqlmock.NewRows([]string{"check_in", "check_out", "rooms"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).WillReturnResult(sqlmock.NewResult(32, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ?")).WillReturnRows(reservationRow(32, model.StatusConfirmed, ""))
	mock.ExpectCommit()

	_, err := svc.Create(context.Background(), hotelAdmin(7), newStay(1))
	require.NoError(err)
	require.Len(pub.events, 1)
	require.NoError(mock.ExpectationsWereMet())
}

func TestCreateValidation(t *testing.T) {
	svc, mock, _ := newReservationService(t)
	ctx := context.Background()

	cases := map[string]func(r *model.Reservation){
		"guest_name":  func(r *model.Reservation) { r.GuestName = " " },
		"check_out":   func(r *model.Reservation) { r.CheckOut = r.CheckIn },
		"rooms":       func(r *model.Reservation) { r.Rooms = 0 },
		"channel":     func(r *model.Reservation) { r.Channel = "expedia" },
		"status":      func(r *model.Reservation) { r.Status = "done" },
		"currency":    func(r *model.Reservation) { r.Currency = "JPY" },
		"total_price": func(r *model.Reservation) { r.TotalPrice = decimal.NewFromInt(-1) },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := newStay(1)
			mutate(&in)
			_, err := svc.Create(ctx, hotelAdmin(7), in)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, field, ve.Field)
		})
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRequiresHotelForMaster(t *testing.T) {
	svc, _, _ := newReservationService(t)
	_, err := svc.Create(context.Background(), auth.Context{UserID: 1, Role: model.RoleMasterAdmin}, newStay(1))
	require.ErrorIs(t, err, auth.ErrHotelRequired)
}

func TestSetStatusToConfirmedPublishesWithoutRequote(t *testing.T) {
	require := require.New(t)
	svc, mock, pub := newReservationService(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? AND hotel_id IN (?)")).WithArgs(9, 7).
		WillReturnRows(reservationRow(9, model.StatusPending, ""))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? AND hotel_id IN (?)")).WithArgs(9, 7).
		WillReturnRows(reservationRow(9, model.StatusPending, ""))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(9, 7).
		WillReturnRows(reservationRow(9, model.StatusPending, ""))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ?")).WithArgs(9).
		WillReturnRows(reservationRow(9, model.StatusConfirmed, ""))
	mock.ExpectCommit()

	got, err := svc.SetStatus(context.Background(), hotelAdmin(7), 9, "CONFIRMED")
	require.NoError(err)
	require.Equal(model.StatusConfirmed, got.Status)
	require.Len(pub.events, 1)
	require.NoError(mock.ExpectationsWereMet())
}

func TestCapacityChanged(t *testing.T) {
	require := require.New(t)
	base := newStay(2)
	base.Status = model.StatusConfirmed

	same := base
	same.Notes = "late arrival"
	require.False(capacityChanged(base, same))

	fewer := base
	fewer.Rooms = 1
	require.False(capacityChanged(base, fewer))

	more := base
	more.Rooms = 3
	require.True(capacityChanged(base, more))

	moved := base
	moved.CheckOut = moved.CheckOut.AddDate(0, 0, 1)
	require.True(capacityChanged(base, moved))

	cancelled := base
	cancelled.Status = model.StatusCancelled
	require.False(capacityChanged(base, cancelled))
	require.True(capacityChanged(cancelled, base))
}

func expectLockedReservation(mock sqlmock.Sqlmock, status string) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? AND hotel_id IN (?)")).WithArgs(9, 7).
		WillReturnRows(reservationRow(9, status, ""))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? AND hotel_id IN (?) FOR UPDATE")).WithArgs(9, 7).
		WillReturnRows(reservationRow(9, status, ""))
}

func TestUpdateGrowingIntoFullDayIsRejected(t *testing.T) {
	require := require.New(t)
	svc, mock, pub := newReservationService(t)

	expectLockedReservation(mock, model.StatusConfirmed)
	mock.ExpectQuery(regexp.QuoteMeta("FROM room_types WHERE id = ? FOR UPDATE")).WithArgs(5).WillReturnRows(roomTypeRow())
	mock.ExpectQuery(regexp.QuoteMeta("FROM inventory_days")).
		WillReturnRows(sqlmock.NewRows([]string{"room_type_id", "day", "price", "allotment", "stop_sell"}))
	mock.ExpectQuery(regexp.QuoteMeta("status <> 'cancelled'")).
		WillReturnRows(sqlmock.NewRows([]string{"check_in", "check_out", "rooms"}).
			AddRow(mustDay("2024-03-02"), mustDay("2024-03-03"), 1))
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), hotelAdmin(7), 9, newStay(3))
	var ce *CapacityError
	require.ErrorAs(err, &ce)
	require.Equal(3, ce.Quote.Rooms)
	require.Equal(2, ce.Quote.RemainingPerDay[1].Remaining)
	require.Empty(pub.events)
	require.NoError(mock.ExpectationsWereMet())
}

func TestUpdateRequoteLeavesOutOwnRooms(t *testing.T) {
	require := require.New(t)
	svc, mock, pub := newReservationService(t)

	expectLockedReservation(mock, model.StatusConfirmed)
	mock.ExpectQuery(regexp.QuoteMeta("FROM room_types WHERE id = ? FOR UPDATE")).WithArgs(5).WillReturnRows(roomTypeRow())
	mock.ExpectQuery(regexp.QuoteMeta("FROM inventory_days")).
		WillReturnRows(sqlmock.NewRows([]string{"room_type_id", "day", "price", "allotment", "stop_sell"}))
	mock.ExpectQuery(regexp.QuoteMeta("AND check_in < ? AND check_out > ? AND id <> ?")).
		WithArgs(5, "2024-03-05", "2024-03-01", 9).
		WillReturnRows(sqlmock.NewRows([]string{"check_in", "check_out", "rooms"}))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ?")).WithArgs(9).
		WillReturnRows(reservationRow(9, model.StatusConfirmed, ""))
	mock.ExpectCommit()

	next := newStay(1)
	next.CheckOut = mustDay("2024-03-05")
	_, err := svc.Update(context.Background(), hotelAdmin(7), 9, next)
	require.NoError(err)
	require.Empty(pub.events)
	require.NoError(mock.ExpectationsWereMet())
}

func TestUpdateKeepsStoredStatusAndRooms(t *testing.T) {
	require := require.New(t)
	svc, mock, pub := newReservationService(t)

	expectLockedReservation(mock, model.StatusCancelled)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET")).
		WithArgs(5, "Ada Lovelace", "ada@example.com", "", "2024-03-01", "2024-03-04", 1, 0, 1,
			"direct", model.StatusCancelled, "TRY", sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), nil, "", "", "late arrival", nil, 9, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ?")).WithArgs(9).
		WillReturnRows(reservationRow(9, model.StatusCancelled, ""))
	mock.ExpectCommit()

	next := newStay(0)
	next.Notes = "late arrival"
	got, err := svc.Update(context.Background(), hotelAdmin(7), 9, next)
	require.NoError(err)
	require.Equal(model.StatusCancelled, got.Status)
	require.Empty(pub.events)
	require.NoError(mock.ExpectationsWereMet())
}
