package handler

import (
	"encoding/json"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

var reservationColumns = []string{"id", "hotel_id", "room_type_id", "guest_name", "guest_email", "guest_phone", "check_in",
	"check_out", "adults", "children", "rooms", "channel", "status", "currency", "fx_rate", "total_price",
	"deposit_amount", "deposit_date", "payment_method", "payment_status", "notes", "payments", "created_at", "updated_at"}

func TestDashboardSummary(t *testing.T) {
	r := require.New(t)
	db, mock := newMock(t)
	now := time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)
	h := NewDashboardHandler(repository.NewHotelRepo(db), repository.NewRoomTypeRepo(db), repository.NewReservationRepo(db))
	h.now = func() time.Time { return now }

	mock.ExpectQuery(regexp.QuoteMeta(`FROM hotels WHERE id IN (?) ORDER BY name`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "currency", "active", "created_at", "updated_at"}).
			AddRow(7, "IST", "Istanbul", "TRY", true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*), COALESCE(SUM(total_rooms), 0) FROM room_types WHERE active = 1 AND hotel_id IN (?)`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"types", "rooms"}).AddRow(2, 4))
	// month start and the 30 day channel window widen the query to Feb 3
	mock.ExpectQuery(regexp.QuoteMeta(`FROM reservations WHERE hotel_id IN (?) AND check_in < ? AND check_out > ?`)).
		WithArgs(7, "2024-03-04", "2024-02-03").
		WillReturnRows(sqlmock.NewRows(reservationColumns).
			AddRow(11, 7, 5, "Ada", "", "", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
				2, 0, 1, "direct", model.StatusConfirmed, "TRY", "1", "1000.00", "0.00", nil, "", "", nil, nil, now, now).
			AddRow(12, 7, 5, "Bob", "", "", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
				1, 0, 2, "booking", model.StatusCancelled, "TRY", "1", "900.00", "0.00", nil, "", "", nil, nil, now, now))

	rec := do(t, newEcho(), http.MethodGet, "/v1/dashboard", "/v1/dashboard?start=2024-03-01&end=2024-03-03",
		bearer(t, model.RoleHotelAdmin, 7), "", h.Summary)
	r.Equal(http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Range   map[string]string `json:"range"`
		Summary struct {
			Totals struct {
				Hotels    int `json:"hotels"`
				RoomTypes int `json:"room_types"`
				Rooms     int `json:"rooms"`
			} `json:"totals"`
			Today struct {
				InHouse      int `json:"inhouse"`
				OccupancyPct int `json:"occupancy_pct"`
			} `json:"today"`
			MTD struct {
				Revenue    string `json:"revenue"`
				RoomNights int    `json:"room_nights"`
				ADR        string `json:"adr"`
				RevPAR     string `json:"revpar"`
			} `json:"mtd"`
			DailyRevenue []struct {
				Date  string `json:"date"`
				Total string `json:"total"`
			} `json:"daily_revenue"`
		} `json:"summary"`
	}
	r.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	r.Equal("2024-03-01", body.Range["start"])
	r.Equal(1, body.Summary.Totals.Hotels)
	r.Equal(4, body.Summary.Totals.Rooms)
	r.Equal(1, body.Summary.Today.InHouse)
	r.Equal(25, body.Summary.Today.OccupancyPct)
	r.Equal("1000", body.Summary.MTD.Revenue)
	r.Equal(3, body.Summary.MTD.RoomNights)
	r.Equal("333.33", body.Summary.MTD.ADR)
	r.Equal("83.33", body.Summary.MTD.RevPAR)
	r.Len(body.Summary.DailyRevenue, 3)
	r.Equal("1000", body.Summary.DailyRevenue[0].Total)
	r.Equal("0", body.Summary.DailyRevenue[1].Total)
	r.NoError(mock.ExpectationsWereMet())
}

func TestDashboardRejectsInvertedRange(t *testing.T) {
	r := require.New(t)
	h := NewDashboardHandler(nil, nil, nil)
	rec := do(t, newEcho(), http.MethodGet, "/v1/dashboard", "/v1/dashboard?start=2024-03-05&end=2024-03-01",
		bearer(t, model.RoleHotelAdmin, 7), "", h.Summary)
	r.Equal(http.StatusBadRequest, rec.Code)
	r.Contains(rec.Body.String(), "end")
}

func TestDashboardStaffWithoutHotel(t *testing.T) {
	r := require.New(t)
	h := NewDashboardHandler(nil, nil, nil)
	rec := do(t, newEcho(), http.MethodGet, "/v1/dashboard", "/v1/dashboard",
		bearer(t, model.RoleHotelStaff, 0), "", h.Summary)
	r.Equal(http.StatusForbidden, rec.Code)
}
