package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// ReservationHandler serves reservation CRUD.  Capacity checks and event
// publishing live in the service.
type ReservationHandler struct {
	Reservations *service.ReservationService
}

func NewReservationHandler(s *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{Reservations: s}
}

// reservationReq is the create/update body.  The payment list arrives
// under any of four names; the first non-nil one wins.
type reservationReq struct {
	HotelID        uint64                `json:"hotel_id"`
	RoomTypeID     uint64                `json:"room_type_id" validate:"required"`
	GuestName      string                `json:"guest_name" validate:"required,max=191"`
	GuestEmail     string                `json:"guest_email" validate:"omitempty,email"`
	GuestPhone     string                `json:"guest_phone" validate:"max=64"`
	CheckIn        string                `json:"check_in" validate:"required"`
	CheckOut       string                `json:"check_out" validate:"required"`
	Adults         int                   `json:"adults" validate:"min=0"`
	Children       int                   `json:"children" validate:"min=0"`
	Rooms          int                   `json:"rooms"`
	Channel        string                `json:"channel"`
	Status         string                `json:"status"`
	Currency       string                `json:"currency"`
	FxRate         decimal.Decimal       `json:"fx_rate"`
	TotalPrice     decimal.Decimal       `json:"total_price"`
	DepositAmount  decimal.Decimal       `json:"deposit_amount"`
	DepositDate    string                `json:"deposit_date"`
	PaymentMethod  string                `json:"payment_method"`
	PaymentStatus  string                `json:"payment_status"`
	Notes          string                `json:"notes"`
	Payments       []model.PaymentRecord `json:"payments"`
	PaymentHistory []model.PaymentRecord `json:"payment_history"`
	HistoryCamel   []model.PaymentRecord `json:"paymentHistory"`
	Transactions   []model.PaymentRecord `json:"transactions"`
}

// payments returns the payment list and whether the body carried one.
func (r reservationReq) payments() ([]model.PaymentRecord, bool) {
	for _, ps := range [][]model.PaymentRecord{r.Payments, r.PaymentHistory, r.HistoryCamel, r.Transactions} {
		if ps != nil {
			return ps, true
		}
	}
	return nil, false
}

func (r reservationReq) model() (model.Reservation, error) {
	in, err := bodyDay("check_in", r.CheckIn)
	if err != nil {
		return model.Reservation{}, err
	}
	out, err := bodyDay("check_out", r.CheckOut)
	if err != nil {
		return model.Reservation{}, err
	}
	res := model.Reservation{
		HotelID:       r.HotelID,
		RoomTypeID:    r.RoomTypeID,
		GuestName:     r.GuestName,
		GuestEmail:    r.GuestEmail,
		GuestPhone:    r.GuestPhone,
		CheckIn:       in,
		CheckOut:      out,
		Adults:        r.Adults,
		Children:      r.Children,
		Rooms:         r.Rooms,
		Channel:       r.Channel,
		Status:        r.Status,
		Currency:      r.Currency,
		FxRate:        r.FxRate,
		TotalPrice:    r.TotalPrice,
		DepositAmount: r.DepositAmount,
		PaymentMethod: r.PaymentMethod,
		PaymentStatus: r.PaymentStatus,
		Notes:         r.Notes,
	}
	if strings.TrimSpace(r.DepositDate) != "" {
		d, err := bodyDay("deposit_date", r.DepositDate)
		if err != nil {
			return model.Reservation{}, err
		}
		res.DepositDate = &d
	}
	res.Payments, _ = r.payments()
	return res, nil
}

// reservationResp echoes the payment list under the names clients read.
type reservationResp struct {
	model.Reservation
	CheckIn        string                `json:"check_in"`
	CheckOut       string                `json:"check_out"`
	Nights         int                   `json:"nights"`
	DepositDate    *string               `json:"deposit_date"`
	Payments       []model.PaymentRecord `json:"payments"`
	PaymentHistory []model.PaymentRecord `json:"paymentHistory"`
	Transactions   []model.PaymentRecord `json:"transactions"`
}

func toReservationResp(r model.Reservation) reservationResp {
	ps := r.Payments
	if ps == nil {
		ps = []model.PaymentRecord{}
	}
	out := reservationResp{
		Reservation:    r,
		CheckIn:        inventory.FormatDay(r.CheckIn),
		CheckOut:       inventory.FormatDay(r.CheckOut),
		Nights:         r.Nights(),
		Payments:       ps,
		PaymentHistory: ps,
		Transactions:   ps,
	}
	if r.DepositDate != nil {
		d := inventory.FormatDay(*r.DepositDate)
		out.DepositDate = &d
	}
	return out
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req reservationReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	in, err := req.model()
	if err != nil {
		return respondError(c, err)
	}
	if in.Rooms == 0 {
		in.Rooms = 1
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	res, err := h.Reservations.Create(ctx, middleware.AuthContext(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toReservationResp(res))
}

// Update handles PUT /v1/reservations/:id.  Payments are replaced only when
// the body carries a payment list; an omitted status or rooms keeps the
// stored value.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req reservationReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	next, err := req.model()
	if err != nil {
		return respondError(c, err)
	}
	ac := middleware.AuthContext(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if _, provided := req.payments(); !provided {
		current, err := h.Reservations.Get(ctx, ac, id)
		if err != nil {
			return respondError(c, err)
		}
		next.Payments = current.Payments
	}
	res, err := h.Reservations.Update(ctx, ac, id, next)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

type statusReq struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// SetStatus handles PATCH /v1/reservations/:id/status.
func (h *ReservationHandler) SetStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req statusReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	res, err := h.Reservations.SetStatus(ctx, middleware.AuthContext(c), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	res, err := h.Reservations.Get(ctx, middleware.AuthContext(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// List handles GET /v1/reservations.  start/end select stays overlapping
// [start, end); q searches guest name, email and phone.
func (h *ReservationHandler) List(c echo.Context) error {
	var (
		f   repository.ReservationFilter
		err error
	)
	if f.From, err = optionalDay(c, "start", "from"); err != nil {
		return respondError(c, err)
	}
	if f.To, err = optionalDay(c, "end", "to"); err != nil {
		return respondError(c, err)
	}
	if f.RoomTypeID, err = queryUint(c, "room_type_id", "roomTypeId"); err != nil {
		return respondError(c, err)
	}
	f.Status = strings.ToLower(strings.TrimSpace(c.QueryParam("status")))
	f.Channel = strings.ToLower(strings.TrimSpace(c.QueryParam("channel")))
	f.Guest = c.QueryParam("q")
	f.Page, f.Limit = repository.Page(queryInt(c, "page", 1), queryInt(c, "limit", 20))

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	items, total, err := h.Reservations.List(ctx, middleware.AuthContext(c), requestedHotels(c), f)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]reservationResp, 0, len(items))
	for _, r := range items {
		out = append(out, toReservationResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "total": total, "page": f.Page, "limit": f.Limit})
}

// Delete handles DELETE /v1/reservations/:id.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.Reservations.Delete(ctx, middleware.AuthContext(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// optionalDay reads the first present query parameter as a day.  Missing
// parameters yield the zero time.
func optionalDay(c echo.Context, names ...string) (time.Time, error) {
	for _, n := range names {
		if raw := strings.TrimSpace(c.QueryParam(n)); raw != "" {
			return bodyDay(n, raw)
		}
	}
	return time.Time{}, nil
}
