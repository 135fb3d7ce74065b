package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation/internal/finance"
	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// FinanceHandler serves the ledger: manual entries plus derivation from
// reservations.  Every date range on these routes is inclusive.
type FinanceHandler struct {
	Ledger *service.LedgerService
}

func NewFinanceHandler(s *service.LedgerService) *FinanceHandler {
	return &FinanceHandler{Ledger: s}
}

type entryResp struct {
	model.LedgerEntry
	Date string `json:"date"`
}

func toEntryResp(e model.LedgerEntry) entryResp {
	return entryResp{LedgerEntry: e, Date: inventory.FormatDay(e.Date)}
}

func toEntryResps(es []model.LedgerEntry) []entryResp {
	out := make([]entryResp, 0, len(es))
	for _, e := range es {
		out = append(out, toEntryResp(e))
	}
	return out
}

type entryReq struct {
	HotelID  uint64          `json:"hotel_id"`
	Type     string          `json:"type" validate:"required"`
	Method   string          `json:"method"`
	Category string          `json:"category" validate:"max=64"`
	Date     string          `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	FxRate   decimal.Decimal `json:"fx_rate"`
	Note     string          `json:"note"`
	Ref      string          `json:"ref" validate:"max=128"`
	Source   string          `json:"source"`
}

type entryPatchReq struct {
	Type     *string          `json:"type"`
	Method   *string          `json:"method"`
	Category *string          `json:"category"`
	Date     *string          `json:"date"`
	Amount   *decimal.Decimal `json:"amount"`
	Currency *string          `json:"currency"`
	FxRate   *decimal.Decimal `json:"fx_rate"`
	Note     *string          `json:"note"`
	Ref      *string          `json:"ref"`
	Source   *string          `json:"source"`
}

func (r entryPatchReq) patch() (service.EntryPatch, error) {
	p := service.EntryPatch{
		Type: r.Type, Method: r.Method, Category: r.Category,
		Amount: r.Amount, Currency: r.Currency, FxRate: r.FxRate,
		Note: r.Note, Ref: r.Ref, Source: r.Source,
	}
	if r.Date != nil {
		d, err := bodyDay("date", *r.Date)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	return p, nil
}

// window reads the inclusive from/to query range and returns it half-open.
// Missing bounds default to the current month.
func window(c echo.Context) (time.Time, time.Time, error) {
	now := today()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from, err := queryDay(c, "from", first)
	if err != nil {
		return from, from, err
	}
	to, err := queryDay(c, "to", first.AddDate(0, 1, -1))
	if err != nil {
		return from, from, err
	}
	return from, to.AddDate(0, 0, 1), nil
}

// options reads include_payments / include_planned, both on by default.
func options(c echo.Context) finance.Options {
	opts := finance.DefaultOptions()
	if v, err := strconv.ParseBool(c.QueryParam("include_payments")); err == nil {
		opts.IncludePayments = v
	}
	if v, err := strconv.ParseBool(c.QueryParam("include_planned")); err == nil {
		opts.IncludePlannedBalance = v
	}
	return opts
}

// ListEntries handles GET /v1/finance/entries.
func (h *FinanceHandler) ListEntries(c echo.Context) error {
	var (
		f   repository.LedgerFilter
		err error
	)
	if f.From, err = optionalDay(c, "from", "start"); err != nil {
		return respondError(c, err)
	}
	if f.To, err = optionalDay(c, "to", "end"); err != nil {
		return respondError(c, err)
	}
	f.Type = strings.ToLower(strings.TrimSpace(c.QueryParam("type")))
	f.Method = c.QueryParam("method")
	f.Source = c.QueryParam("source")
	f.Page, f.Limit = repository.Page(queryInt(c, "page", 1), queryInt(c, "limit", 50))

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	page, err := h.Ledger.ListEntries(ctx, middleware.AuthContext(c), requestedHotels(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": toEntryResps(page.Entries),
		"total": page.Total,
		"sums":  page.Sums,
		"page":  f.Page,
		"limit": f.Limit,
	})
}

// CreateEntry handles POST /v1/finance/entries.  The date defaults to today.
func (h *FinanceHandler) CreateEntry(c echo.Context) error {
	var req entryReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	date := today()
	if strings.TrimSpace(req.Date) != "" {
		d, err := bodyDay("date", req.Date)
		if err != nil {
			return respondError(c, err)
		}
		date = d
	}
	e := model.LedgerEntry{
		HotelID:  req.HotelID,
		Type:     req.Type,
		Method:   req.Method,
		Category: strings.TrimSpace(req.Category),
		Date:     date,
		Amount:   req.Amount,
		Currency: req.Currency,
		FxRate:   req.FxRate,
		Note:     strings.TrimSpace(req.Note),
		Ref:      strings.TrimSpace(req.Ref),
		Source:   req.Source,
	}
	if e.Source == "" {
		e.Source = finance.SourceManual
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	created, err := h.Ledger.CreateEntry(ctx, middleware.AuthContext(c), e)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toEntryResp(created))
}

// UpdateEntry handles PATCH /v1/finance/entries/:id.
func (h *FinanceHandler) UpdateEntry(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req entryPatchReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, &service.ValidationError{Message: "invalid body"})
	}
	p, err := req.patch()
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	e, err := h.Ledger.UpdateEntry(ctx, middleware.AuthContext(c), id, p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toEntryResp(e))
}

// DeleteEntry handles DELETE /v1/finance/entries/:id.
func (h *FinanceHandler) DeleteEntry(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.Ledger.DeleteEntry(ctx, middleware.AuthContext(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Preview handles GET /v1/finance/preview: the entries a sync would write
// for stays overlapping [from, to], without storing them.
func (h *FinanceHandler) Preview(c echo.Context) error {
	from, to, err := window(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	entries, err := h.Ledger.Preview(ctx, middleware.AuthContext(c), requestedHotels(c), from, to, options(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toEntryResps(entries), "count": len(entries)})
}

// Sync handles POST /v1/finance/sync.  It takes the same query parameters
// as Preview.
func (h *FinanceHandler) Sync(c echo.Context) error {
	from, to, err := window(c)
	if err != nil {
		return respondError(c, err)
	}
	// one transaction per reservation in the window
	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()
	res, err := h.Ledger.SyncForCaller(ctx, middleware.AuthContext(c), requestedHotels(c), from, to, options(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
