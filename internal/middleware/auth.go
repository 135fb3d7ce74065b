package middleware // middleware holds the Echo middleware shared by every route group

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

// Context keys written by JWTAuth.
const (
	ctxAuth   = "auth"
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Impersonation headers.  The short forms are accepted for older clients.
const (
	HeaderImpersonateRole  = "X-Impersonate-Role"
	HeaderImpersonateHotel = "X-Impersonate-Hotel"
	headerImpRoleShort     = "X-Imp-Role"
	headerImpHotelShort    = "X-Imp-Hotel"
)

func unauthorized(c echo.Context, code, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg, "code": code})
}

// bearerToken finds the access token: Authorization bearer first, then the
// X-Access-Token header, then the auth_token or token cookie.
func bearerToken(c echo.Context) string {
	if h := c.Request().Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if h := strings.TrimSpace(c.Request().Header.Get("X-Access-Token")); h != "" {
		return h
	}
	for _, name := range []string{"auth_token", "token"} {
		if ck, err := c.Cookie(name); err == nil && ck.Value != "" {
			return ck.Value
		}
	}
	return ""
}

// claimUint reads a numeric claim.  MapClaims decodes JSON numbers as
// float64; string ids are accepted as well.
func claimUint(v any) (uint64, bool) {
	switch t := v.(type) {
	case float64:
		if t <= 0 {
			return 0, false
		}
		return uint64(t), true
	case string:
		n, err := strconv.ParseUint(t, 10, 64)
		return n, err == nil && n > 0
	}
	return 0, false
}

func header(c echo.Context, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(c.Request().Header.Get(n)); v != "" {
			return v
		}
	}
	return ""
}

// JWTAuth validates the HS256 access token, applies impersonation headers
// and stores the resulting auth.Context on both the Echo context and the
// request context.  Only MASTER_ADMIN may impersonate; the impersonated
// role replaces the token role and the impersonated hotel becomes the
// caller's hotel.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return unauthorized(c, "TOKEN_MISSING", "missing access token")
			}

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if errors.Is(err, jwt.ErrTokenExpired) {
				return unauthorized(c, "TOKEN_EXPIRED", "access token expired")
			}
			if err != nil || !tok.Valid {
				return unauthorized(c, "TOKEN_INVALID", "invalid access token")
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c, "TOKEN_INVALID", "invalid claims")
			}
			uid, ok := claimUint(claims["sub"])
			if !ok {
				return unauthorized(c, "TOKEN_INVALID", "invalid subject")
			}
			role, _ := claims["role"].(string)
			ac := auth.Context{UserID: uid, Role: strings.ToUpper(role)}
			if hid, ok := claimUint(claims["hotel"]); ok {
				ac.HotelID = &hid
			}

			impRole := header(c, HeaderImpersonateRole, headerImpRoleShort)
			impHotel := header(c, HeaderImpersonateHotel, headerImpHotelShort)
			if impRole != "" || impHotel != "" {
				if !ac.IsMaster() {
					return c.JSON(http.StatusForbidden, echo.Map{"error": "impersonation not allowed", "code": "IMPERSONATE_NOT_ALLOWED"})
				}
				if impRole != "" {
					r := strings.ToUpper(impRole)
					if !model.IsValidRole(r) {
						return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown impersonation role"})
					}
					ac.Role = r
				}
				if impHotel != "" {
					hid, err := strconv.ParseUint(impHotel, 10, 64)
					if err != nil || hid == 0 {
						return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid impersonation hotel"})
					}
					ac.HotelID = &hid
				}
				ac.Impersonating = true
			}

			c.Set(ctxAuth, ac)
			c.Set(ctxUserID, ac.UserID)
			c.Set(ctxRole, ac.Role)
			c.SetRequest(c.Request().WithContext(auth.WithContext(c.Request().Context(), ac)))
			return next(c)
		}
	}
}

// AuthContext returns the auth.Context stored by JWTAuth.  Routes outside
// JWTAuth get the zero Context, which has no scope.
func AuthContext(c echo.Context) auth.Context {
	ac, _ := c.Get(ctxAuth).(auth.Context)
	return ac
}
