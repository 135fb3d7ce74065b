package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/config"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

func TestCachedPayloadRoundTrip(t *testing.T) {
	require := require.New(t)
	hdr := http.Header{"Content-Type": []string{"application/json"}}

	bs, err := encodeCached(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(err)
	status, gotHdr, body, ok := decodeCached(bs)
	require.True(ok)
	require.Equal(http.StatusOK, status)
	require.Equal("application/json", gotHdr.Get("Content-Type"))
	require.Equal(`{"ok":true}`, string(body))

	_, _, _, ok = decodeCached([]byte{0, 1})
	require.False(ok)
}

func TestCacheKeySeparatesTenants(t *testing.T) {
	require := require.New(t)
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

	keyFor := func(ac auth.Context) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/dashboard?start=2024-01-01", nil), httptest.NewRecorder())
		c.SetPath("/v1/dashboard")
		c.Set(ctxAuth, ac)
		return cacheKey(cfg, c)
	}
	h1, h2 := uint64(1), uint64(2)
	a := keyFor(auth.Context{UserID: 5, Role: model.RoleHotelAdmin, HotelID: &h1})
	b := keyFor(auth.Context{UserID: 6, Role: model.RoleHotelAdmin, HotelID: &h2})
	same := keyFor(auth.Context{UserID: 7, Role: model.RoleHotelAdmin, HotelID: &h1})

	require.NotEqual(a, b)
	require.Equal(a, same)
	require.Contains(a, "cache:")
}

func TestCaptureWriterStopsAtLimit(t *testing.T) {
	require := require.New(t)
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}

	_, err := cw.Write([]byte("abc"))
	require.NoError(err)
	require.False(cw.over)
	_, err = cw.Write([]byte("def"))
	require.NoError(err)
	require.True(cw.over)
	require.Equal("abcdef", rec.Body.String())
}

func TestRateKeyStrategies(t *testing.T) {
	require := require.New(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/reservations")

	require.Equal("rl:ip:10.0.0.1", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	require.Equal("rl:ip:10.0.0.1:user:anon:route:POST /v1/reservations", rateKey(config.RateLimitConfig{Prefix: "rl"}, c))

	c.Set(ctxAuth, auth.Context{UserID: 42, Role: model.RoleHotelStaff})
	require.Equal("rl:user:42", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	require := require.New(t)
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequestID())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Len(rec.Header().Get(echo.HeaderXRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal("abc", rec.Header().Get(echo.HeaderXRequestID))
}
