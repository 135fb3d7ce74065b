package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/finance"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// HotelHandler serves the tenant registry.  Every route is master only.
type HotelHandler struct {
	Hotels *repository.HotelRepo
}

func NewHotelHandler(hotels *repository.HotelRepo) *HotelHandler {
	return &HotelHandler{Hotels: hotels}
}

type hotelReq struct {
	Code     string `json:"code" validate:"required,max=32"`
	Name     string `json:"name" validate:"required,max=191"`
	Currency string `json:"currency"`
	Active   *bool  `json:"active"`
}

func (r hotelReq) model() (model.Hotel, error) {
	h := model.Hotel{Code: r.Code, Name: r.Name, Currency: finance.BaseCurrency, Active: true}
	if r.Currency != "" {
		cur, ok := finance.NormCurrency(r.Currency)
		if !ok {
			return model.Hotel{}, &service.ValidationError{Field: "currency", Message: "unsupported currency " + cur}
		}
		h.Currency = cur
	}
	if r.Active != nil {
		h.Active = *r.Active
	}
	return h, nil
}

// Create handles POST /v1/hotels.
func (h *HotelHandler) Create(c echo.Context) error {
	var req hotelReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	hotel, err := req.model()
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.Hotels.Create(ctx, &hotel); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, hotel)
}

// List handles GET /v1/hotels.
func (h *HotelHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	hotels, err := h.Hotels.List(ctx, auth.Scope{All: true})
	if err != nil {
		return respondError(c, err)
	}
	if hotels == nil {
		hotels = []model.Hotel{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": hotels, "count": len(hotels)})
}

// Get handles GET /v1/hotels/:id.
func (h *HotelHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	hotel, err := h.Hotels.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, hotel)
}

// Update handles PUT /v1/hotels/:id.
func (h *HotelHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req hotelReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	hotel, err := req.model()
	if err != nil {
		return respondError(c, err)
	}
	hotel.ID = id
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if _, err := h.Hotels.GetByID(ctx, id); err != nil {
		return respondError(c, err)
	}
	if err := h.Hotels.Update(ctx, &hotel); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, hotel)
}
