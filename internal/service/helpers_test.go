package service

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

var (
	roomTypeColumns = []string{"id", "hotel_id", "code", "name", "base_price", "capacity_adults", "capacity_children",
		"total_rooms", "active", "created_at", "updated_at"}
	reservationColumns = []string{"id", "hotel_id", "room_type_id", "guest_name", "guest_email", "guest_phone", "check_in",
		"check_out", "adults", "children", "rooms", "channel", "status", "currency", "fx_rate", "total_price",
		"deposit_amount", "deposit_date", "payment_method", "payment_status", "notes", "payments", "created_at", "updated_at"}
	fixedNow = time.Date(2024, 2, 20, 10, 0, 0, 0, time.UTC)
)

func mustDay(s string) time.Time {
	t, err := inventory.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func hotelAdmin(hotelID uint64) auth.Context {
	return auth.Context{UserID: 1, Role: model.RoleHotelAdmin, HotelID: &hotelID}
}

// roomTypeRow is room type 5 of hotel 7: 3 rooms at 100.00.
func roomTypeRow() *sqlmock.Rows {
	return sqlmock.NewRows(roomTypeColumns).
		AddRow(5, 7, "DBL", "Double", "100.00", 2, 1, 3, true, fixedNow, fixedNow)
}

func reservationRow(id uint64, status string, payments string) *sqlmock.Rows {
	var pays any
	if payments != "" {
		pays = []byte(payments)
	}
	return sqlmock.NewRows(reservationColumns).AddRow(
		id, 7, 5, "Ada Lovelace", "ada@example.com", "", mustDay("2024-03-01"), mustDay("2024-03-04"),
		2, 0, 1, "direct", status, "TRY", "1.000000", "1000.00",
		"0.00", nil, "", "", nil, pays, fixedNow, fixedNow)
}
