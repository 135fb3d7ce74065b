package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// RoomTypeHandler serves room type CRUD inside the caller's hotel scope.
type RoomTypeHandler struct {
	RoomTypes *repository.RoomTypeRepo
}

func NewRoomTypeHandler(roomTypes *repository.RoomTypeRepo) *RoomTypeHandler {
	return &RoomTypeHandler{RoomTypes: roomTypes}
}

type roomTypeReq struct {
	HotelID          uint64          `json:"hotel_id"`
	Code             string          `json:"code" validate:"required,max=32"`
	Name             string          `json:"name" validate:"required,max=191"`
	BasePrice        decimal.Decimal `json:"base_price"`
	CapacityAdults   int             `json:"capacity_adults" validate:"min=1"`
	CapacityChildren int             `json:"capacity_children" validate:"min=0"`
	TotalRooms       int             `json:"total_rooms" validate:"min=0"`
	Active           *bool           `json:"active"`
}

func (r roomTypeReq) model() (model.RoomType, error) {
	if r.BasePrice.IsNegative() {
		return model.RoomType{}, &service.ValidationError{Field: "base_price", Message: "must be >= 0"}
	}
	rt := model.RoomType{
		HotelID:          r.HotelID,
		Code:             r.Code,
		Name:             r.Name,
		BasePrice:        r.BasePrice,
		CapacityAdults:   r.CapacityAdults,
		CapacityChildren: r.CapacityChildren,
		TotalRooms:       r.TotalRooms,
		Active:           true,
	}
	if r.Active != nil {
		rt.Active = *r.Active
	}
	return rt, nil
}

// Create handles POST /v1/room-types.
func (h *RoomTypeHandler) Create(c echo.Context) error {
	req := roomTypeReq{CapacityAdults: 2}
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	rt, err := req.model()
	if err != nil {
		return respondError(c, err)
	}
	if rt.HotelID, err = middleware.AuthContext(c).WriteHotel(req.HotelID); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.RoomTypes.Create(ctx, &rt); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, rt)
}

// List handles GET /v1/room-types.  ?active=true hides deactivated types.
func (h *RoomTypeHandler) List(c echo.Context) error {
	scope, err := middleware.AuthContext(c).ReadScope(requestedHotels(c))
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	items, err := h.RoomTypes.List(ctx, scope, c.QueryParam("active") == "true")
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []model.RoomType{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Get handles GET /v1/room-types/:id.
func (h *RoomTypeHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	scope, err := middleware.AuthContext(c).ReadScope(nil)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	rt, err := h.RoomTypes.GetByID(ctx, scope, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rt)
}

// Update handles PUT /v1/room-types/:id.  The owning hotel never changes.
func (h *RoomTypeHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req roomTypeReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	next, err := req.model()
	if err != nil {
		return respondError(c, err)
	}
	scope, err := middleware.AuthContext(c).ReadScope(nil)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	current, err := h.RoomTypes.GetByID(ctx, scope, id)
	if err != nil {
		return respondError(c, err)
	}
	next.ID, next.HotelID = current.ID, current.HotelID
	if req.Active == nil {
		next.Active = current.Active
	}
	if err := h.RoomTypes.Update(ctx, &next); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, next)
}

// Delete handles DELETE /v1/room-types/:id as a soft deactivate.
func (h *RoomTypeHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	scope, err := middleware.AuthContext(c).ReadScope(nil)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.RoomTypes.Deactivate(ctx, scope, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
