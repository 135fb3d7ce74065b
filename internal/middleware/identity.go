package middleware

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// callerKey identifies the caller for rate limiting: the user id when the
// request is authenticated, "anon" otherwise.
func callerKey(c echo.Context) string {
	if ac := AuthContext(c); ac.UserID != 0 {
		return strconv.FormatUint(ac.UserID, 10)
	}
	return "anon"
}

// scopeKey renders the caller's effective role and hotel.  Cached
// responses are keyed by it so tenants never share an entry.
func scopeKey(c echo.Context) string {
	ac := AuthContext(c)
	hotel := "all"
	if ac.HotelID != nil {
		hotel = strconv.FormatUint(*ac.HotelID, 10)
	}
	role := ac.Role
	if role == "" {
		role = "anon"
	}
	return strings.Join([]string{role, hotel}, "/")
}
