package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/finance"
	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/repository"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// requestTimeout bounds the database work of one request.
const requestTimeout = 5 * time.Second

// Validator adapts go-playground/validator to echo.Validator.  Failures
// come back as *service.ValidationError named after the JSON field.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		fe := fields[0]
		msg := "failed " + fe.Tag()
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "email":
			msg = "must be an email address"
		case "min", "gte":
			msg = "must be >= " + fe.Param()
		case "max", "lte":
			msg = "must be <= " + fe.Param()
		case "oneof":
			msg = "must be one of " + fe.Param()
		}
		return &service.ValidationError{Field: fe.Field(), Message: msg}
	}
	return &service.ValidationError{Message: err.Error()}
}

// bindValid binds the request body into dst and validates it.
func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return &service.ValidationError{Message: "invalid body"}
	}
	return c.Validate(dst)
}

// respondError writes the JSON error matching err.  Errors it does not know
// become a 500 whose cause reaches the request log but not the client.
func respondError(c echo.Context, err error) error {
	var (
		ve *service.ValidationError
		fe *finance.FieldError
		ce *service.CapacityError
	)
	switch {
	case errors.As(err, &ve):
		body := echo.Map{"error": ve.Error()}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		return c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &fe):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fe.Error(), "field": fe.Field})
	case errors.Is(err, inventory.ErrInvalidDate),
		errors.Is(err, inventory.ErrEndBeforeStart),
		errors.Is(err, inventory.ErrRangeTooLong),
		errors.Is(err, inventory.ErrEmptyPatch),
		errors.Is(err, inventory.ErrNegativePrice),
		errors.Is(err, inventory.ErrNegativeAllotment),
		errors.Is(err, auth.ErrHotelRequired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, auth.ErrNoHotel),
		errors.Is(err, auth.ErrOutOfScope),
		errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.As(err, &ce):
		return c.JSON(http.StatusConflict, echo.Map{"error": ce.Error(), "quote": ce.Quote})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already exists"})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
}

// HTTPErrorHandler renders errors that reach Echo in the same
// {"error": ...} shape the handlers use.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := http.StatusInternalServerError, "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(code)
		}
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"error": msg})
}

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &service.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}

func queryUint(c echo.Context, names ...string) (uint64, error) {
	for _, n := range names {
		raw := strings.TrimSpace(c.QueryParam(n))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, &service.ValidationError{Field: n, Message: "must be a positive integer"}
		}
		return v, nil
	}
	return 0, nil
}

func queryInt(c echo.Context, name string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(c.QueryParam(name))); err == nil {
		return n
	}
	return def
}

// requestedHotels reads the hotel filter a master may pass as
// ?hotel_id=3,7 or ?hotelId=3.
func requestedHotels(c echo.Context) []uint64 {
	raw := c.QueryParam("hotel_id")
	if raw == "" {
		raw = c.QueryParam("hotelId")
	}
	return auth.ParseHotelIDs(raw)
}

// queryDay parses a YYYY-MM-DD query parameter.  A missing value yields
// def, or a validation error when def is zero.
func queryDay(c echo.Context, name string, def time.Time) (time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		if def.IsZero() {
			return time.Time{}, &service.ValidationError{Field: name, Message: "is required"}
		}
		return def, nil
	}
	d, err := inventory.ParseDay(raw)
	if err != nil {
		return time.Time{}, &service.ValidationError{Field: name, Message: err.Error()}
	}
	return d, nil
}

func bodyDay(field, raw string) (time.Time, error) {
	d, err := inventory.ParseDay(raw)
	if err != nil {
		return time.Time{}, &service.ValidationError{Field: field, Message: err.Error()}
	}
	return d, nil
}

func today() time.Time { return inventory.Truncate(time.Now()) }
