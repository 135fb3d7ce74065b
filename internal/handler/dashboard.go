package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/report"
	"github.com/iliyamo/hotel-reservation/internal/repository"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// DashboardHandler loads what report.Summarize needs for the caller's
// scope.
type DashboardHandler struct {
	Hotels       *repository.HotelRepo
	RoomTypes    *repository.RoomTypeRepo
	Reservations *repository.ReservationRepo
	now          func() time.Time
}

func NewDashboardHandler(hotels *repository.HotelRepo, roomTypes *repository.RoomTypeRepo, reservations *repository.ReservationRepo) *DashboardHandler {
	return &DashboardHandler{Hotels: hotels, RoomTypes: roomTypes, Reservations: reservations, now: time.Now}
}

// Summary handles GET /v1/dashboard?start&end.  Both days are inclusive;
// the default is the last seven days.
func (h *DashboardHandler) Summary(c echo.Context) error {
	day := h.now().UTC()
	end, err := queryDay(c, "end", time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC))
	if err != nil {
		return respondError(c, err)
	}
	start, err := queryDay(c, "start", end.AddDate(0, 0, -6))
	if err != nil {
		return respondError(c, err)
	}
	if end.Before(start) {
		return respondError(c, &service.ValidationError{Field: "end", Message: "must not be before start"})
	}
	scope, err := middleware.AuthContext(c).ReadScope(requestedHotels(c))
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	in, err := h.load(ctx, scope, day, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"range":   echo.Map{"start": start.Format(time.DateOnly), "end": end.Format(time.DateOnly)},
		"summary": report.Summarize(in),
	})
}

func (h *DashboardHandler) load(ctx context.Context, scope auth.Scope, today, start, end time.Time) (report.Input, error) {
	in := report.Input{Today: today, Start: start, End: end}
	var err error
	if in.Hotels, err = h.Hotels.List(ctx, scope); err != nil {
		return in, err
	}
	if in.RoomTypes, in.TotalRooms, err = h.RoomTypes.TotalRooms(ctx, scope); err != nil {
		return in, err
	}
	from, to := report.Window(today, start, end)
	if in.Reservations, err = h.Reservations.ListOverlapping(ctx, scope, from, to); err != nil {
		return in, err
	}
	return in, nil
}
