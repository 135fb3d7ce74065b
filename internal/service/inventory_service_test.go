package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

func newInventoryService(t *testing.T) (*InventoryService, sqlmock.Sqlmock) {
	db, mock := newMock(t)
	logger, _ := test.NewNullLogger()
	return NewInventoryService(repository.NewRoomTypeRepo(db), repository.NewInventoryRepo(db), logger), mock
}

func TestApplyWeekdaysWritesEverySegmentInOneTransaction(t *testing.T) {
	require := require.New(t)
	svc, mock := newInventoryService(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM room_types WHERE id = ? AND hotel_id IN (?)")).
		WithArgs(5, 7).
		WillReturnRows(roomTypeRow())
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_days")).
		WithArgs(5, "2024-01-05", sqlmock.AnyArg(), 0, true, 5, "2024-01-06", sqlmock.AnyArg(), 0, true, 5, "2024-01-07", sqlmock.AnyArg(), 0, true).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_days")).
		WithArgs(5, "2024-01-12", sqlmock.AnyArg(), 0, true, 5, "2024-01-13", sqlmock.AnyArg(), 0, true, 5, "2024-01-14", sqlmock.AnyArg(), 0, true).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	stop := true
	segs, n, err := svc.ApplyWeekdays(context.Background(), hotelAdmin(7), 5,
		mustDay("2024-01-05"), mustDay("2024-01-14"),
		[]time.Weekday{time.Friday, time.Saturday, time.Sunday},
		inventory.Patch{StopSell: &stop})
	require.NoError(err)
	require.Equal(6, n)
	require.Len(segs, 2)
	require.Equal("2024-01-05", inventory.FormatDay(segs[0].Start))
	require.Equal("2024-01-08", inventory.FormatDay(segs[0].End))
	require.NoError(mock.ExpectationsWereMet())
}

func TestApplyRangeRollsBackOnFailure(t *testing.T) {
	require := require.New(t)
	svc, mock := newInventoryService(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM room_types")).WillReturnRows(roomTypeRow())
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_days")).WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	price := decimal.NewFromInt(90)
	_, err := svc.ApplyRange(context.Background(), hotelAdmin(7), 5, mustDay("2024-01-01"), mustDay("2024-01-03"), inventory.Patch{Price: &price})
	require.EqualError(err, "deadlock")
	require.NoError(mock.ExpectationsWereMet())
}

func TestApplyRangeEmptyRangeIsNoop(t *testing.T) {
	require := require.New(t)
	svc, mock := newInventoryService(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM room_types")).WillReturnRows(roomTypeRow())

	allot := 2
	n, err := svc.ApplyRange(context.Background(), hotelAdmin(7), 5, mustDay("2024-01-01"), mustDay("2024-01-01"), inventory.Patch{Allotment: &allot})
	require.NoError(err)
	require.Zero(n)
	require.NoError(mock.ExpectationsWereMet())
}

func TestApplyRangeValidatesBeforeTouchingTheDatabase(t *testing.T) {
	require := require.New(t)
	svc, mock := newInventoryService(t)
	ctx := context.Background()
	neg := -1
	allot := 1

	_, err := svc.ApplyRange(ctx, hotelAdmin(7), 5, mustDay("2024-01-01"), mustDay("2024-01-05"), inventory.Patch{})
	require.ErrorIs(err, inventory.ErrEmptyPatch)

	_, err = svc.ApplyRange(ctx, hotelAdmin(7), 5, mustDay("2024-01-01"), mustDay("2024-01-05"), inventory.Patch{Allotment: &neg})
	require.ErrorIs(err, inventory.ErrNegativeAllotment)

	_, err = svc.ApplyRange(ctx, hotelAdmin(7), 5, mustDay("2024-01-05"), mustDay("2024-01-01"), inventory.Patch{Allotment: &allot})
	require.ErrorIs(err, inventory.ErrEndBeforeStart)

	_, _, err = svc.ApplyWeekdays(ctx, hotelAdmin(7), 5, mustDay("2024-01-01"), mustDay("2024-01-05"), []time.Weekday{7}, inventory.Patch{Allotment: &allot})
	var ve *ValidationError
	require.ErrorAs(err, &ve)
	require.Equal("weekdays", ve.Field)

	require.NoError(mock.ExpectationsWereMet())
}

func TestCalendarFillsUnconfiguredDays(t *testing.T) {
	require := require.New(t)
	svc, mock := newInventoryService(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM room_types")).WillReturnRows(roomTypeRow())
	mock.ExpectQuery(regexp.QuoteMeta("FROM inventory_days")).
		WillReturnRows(sqlmock.NewRows([]string{"room_type_id", "day", "price", "allotment", "stop_sell"}).
			AddRow(5, mustDay("2024-01-02"), "150.00", 9, false))

	days, err := svc.Calendar(context.Background(), hotelAdmin(7), 5, mustDay("2024-01-01"), mustDay("2024-01-03"))
	require.NoError(err)
	require.Len(days, 2)

	require.Nil(days[0].Price)
	require.Nil(days[0].Allotment)
	require.Equal("100", days[0].EffectivePrice.String())
	require.Equal(3, days[0].EffectiveAllotment)

	require.Equal(9, *days[1].Allotment)
	require.Equal(3, days[1].EffectiveAllotment) // capped by total rooms
	require.Equal("150", days[1].EffectivePrice.String())
	require.NoError(mock.ExpectationsWereMet())
}

func TestApplyRangeTwiceIssuesTheSameUpsert(t *testing.T) {
	require := require.New(t)
	svc, mock := newInventoryService(t)

	upsert := "INSERT INTO inventory_days (room_type_id, day, price, allotment, stop_sell) VALUES (?, ?, ?, ?, ?),(?, ?, ?, ?, ?)" +
		" ON DUPLICATE KEY UPDATE price = VALUES(price), allotment = VALUES(allotment), stop_sell = VALUES(stop_sell)"
	// first run inserts both days; the second finds them and changes nothing
	for _, affected := range []int64{2, 0} {
		mock.ExpectQuery(regexp.QuoteMeta("FROM room_types WHERE id = ? AND hotel_id IN (?)")).WithArgs(5, 7).
			WillReturnRows(roomTypeRow())
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(upsert)).
			WithArgs(5, "2024-01-01", "120", 4, false, 5, "2024-01-02", "120", 4, false).
			WillReturnResult(sqlmock.NewResult(0, affected))
		mock.ExpectCommit()
	}

	price := decimal.NewFromInt(120)
	allot := 4
	stop := false
	patch := inventory.Patch{Price: &price, Allotment: &allot, StopSell: &stop}
	for i := 0; i < 2; i++ {
		n, err := svc.ApplyRange(context.Background(), hotelAdmin(7), 5, mustDay("2024-01-01"), mustDay("2024-01-03"), patch)
		require.NoError(err)
		require.Equal(2, n)
	}
	require.NoError(mock.ExpectationsWereMet())
}
