package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

type AvailabilityHandler struct {
	Availability *service.AvailabilityService
}

func NewAvailabilityHandler(s *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{Availability: s}
}

// Quote handles GET /v1/availability/quote?room_type_id&start&end&rooms.
func (h *AvailabilityHandler) Quote(c echo.Context) error {
	rtID, err := queryUint(c, "room_type_id", "roomTypeId")
	if err != nil {
		return respondError(c, err)
	}
	if rtID == 0 {
		return respondError(c, &service.ValidationError{Field: "room_type_id", Message: "is required"})
	}
	start, err := queryDay(c, "start", today())
	if err != nil {
		return respondError(c, err)
	}
	end, err := queryDay(c, "end", start.AddDate(0, 0, 1))
	if err != nil {
		return respondError(c, err)
	}
	rooms := queryInt(c, "rooms", 1)

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	q, err := h.Availability.Quote(ctx, middleware.AuthContext(c), rtID, start, end, rooms)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}
