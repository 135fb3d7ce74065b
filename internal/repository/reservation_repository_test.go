package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/auth"
)

func TestReservationCommittedTxUsesHalfOpenOverlap(t *testing.T) {
	require := require.New(t)
	db, mock, err := sqlmock.New()
	require.NoError(err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"check_in", "check_out", "rooms"}).
		AddRow(day("2024-06-01"), day("2024-06-04"), 2)
	mock.ExpectQuery(regexp.QuoteMeta("status <> 'cancelled' AND check_in < ? AND check_out > ? AND id <> ?")).
		WithArgs(5, "2024-06-05", "2024-06-02", 11).
		WillReturnRows(rows)

	got, err := NewReservationRepo(db).CommittedTx(context.Background(), nil, 5, day("2024-06-02"), day("2024-06-05"), 11)
	require.NoError(err)
	require.Len(got, 1)
	require.Equal(2, got[0].Rooms)
	require.True(got[0].CheckOut.Equal(day("2024-06-04")))
	require.NoError(mock.ExpectationsWereMet())
}

func TestReservationGetByIDOutsideScopeIsNotFound(t *testing.T) {
	require := require.New(t)
	db, mock, err := sqlmock.New()
	require.NoError(err)
	defer db.Close()

	// An empty scope renders as 1=0 and never reaches a row.
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? AND 1=0")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewReservationRepo(db).GetByID(context.Background(), auth.Scope{}, 7)
	require.ErrorIs(err, ErrNotFound)
	require.NoError(mock.ExpectationsWereMet())
}

func TestReservationFilterWhere(t *testing.T) {
	require := require.New(t)

	where, args := ReservationFilter{
		Scope:  auth.Scope{HotelIDs: []uint64{1, 2}},
		From:   day("2024-01-01"),
		To:     day("2024-02-01"),
		Status: "confirmed",
		Guest:  "50%_off",
	}.where()

	require.Equal("hotel_id IN (?,?) AND check_in < ? AND check_out > ? AND status = ? AND (guest_name LIKE ? OR guest_email LIKE ? OR guest_phone LIKE ?)", where)
	require.Equal([]any{uint64(1), uint64(2), "2024-02-01", "2024-01-01", "confirmed", `%50\%\_off%`, `%50\%\_off%`, `%50\%\_off%`}, args)
}
