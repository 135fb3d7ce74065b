package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// InventoryHandler serves the per-day inventory calendar and its bulk
// updates.
type InventoryHandler struct {
	Inventory *service.InventoryService
}

func NewInventoryHandler(s *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{Inventory: s}
}

type bulkReq struct {
	RoomTypeID uint64 `json:"room_type_id" validate:"required"`
	Start      string `json:"start" validate:"required"`
	End        string `json:"end" validate:"required"`
	inventory.Patch
}

type bulkWeekdaysReq struct {
	bulkReq
	Weekdays []int `json:"weekdays" validate:"required,min=1,dive,min=0,max=6"`
}

type segmentResp struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r bulkReq) days() (time.Time, time.Time, error) {
	start, err := bodyDay("start", r.Start)
	if err != nil {
		return start, start, err
	}
	end, err := bodyDay("end", r.End)
	return start, end, err
}

// Calendar handles GET /v1/inventory?room_type_id&start&end.  The range is
// [start, end); end defaults to 30 days after start.
func (h *InventoryHandler) Calendar(c echo.Context) error {
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
	end, err := queryDay(c, "end", start.AddDate(0, 0, 30))
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	days, err := h.Inventory.Calendar(ctx, middleware.AuthContext(c), rtID, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"room_type_id": rtID, "days": days})
}

// Bulk handles POST /v1/inventory/bulk for the contiguous range [start, end).
func (h *InventoryHandler) Bulk(c echo.Context) error {
	var req bulkReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	start, end, err := req.days()
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	n, err := h.Inventory.ApplyRange(ctx, middleware.AuthContext(c), req.RoomTypeID, start, end, req.Patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "days": n})
}

// BulkWeekdays handles POST /v1/inventory/bulk/weekdays.  The range is
// inclusive and only the listed weekdays (0 = Sunday) are written.
func (h *InventoryHandler) BulkWeekdays(c echo.Context) error {
	var req bulkWeekdaysReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	start, end, err := req.days()
	if err != nil {
		return respondError(c, err)
	}
	weekdays := make([]time.Weekday, 0, len(req.Weekdays))
	for _, w := range req.Weekdays {
		weekdays = append(weekdays, time.Weekday(w))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	segs, n, err := h.Inventory.ApplyWeekdays(ctx, middleware.AuthContext(c), req.RoomTypeID, start, end, weekdays, req.Patch)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]segmentResp, 0, len(segs))
	for _, s := range segs {
		out = append(out, segmentResp{Start: inventory.FormatDay(s.Start), End: inventory.FormatDay(s.End)})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "days": n, "segments": out})
}
