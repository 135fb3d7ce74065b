package handler

import (
	"database/sql"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/utils"
)

const testSecret = "handler-secret"

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = HTTPErrorHandler
	return e
}

// bearer issues an access token for a hotel-bound user (hotel 0 means none).
func bearer(t *testing.T, role string, hotel uint64) string {
	t.Helper()
	var hp *uint64
	if hotel != 0 {
		hp = &hotel
	}
	at, err := utils.NewAccessToken(testSecret, 1, role, hp, 5)
	require.NoError(t, err)
	return "Bearer " + at.Token
}

// serve sends one request to e.
func serve(e *echo.Echo, method, target, auth, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// do registers h at route behind JWTAuth and sends one request to it.
func do(t *testing.T, e *echo.Echo, method, route, target, auth, body string, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e.Add(method, route, h, middleware.JWTAuth(testSecret))
	return serve(e, method, target, auth, body)
}
