// Package auth carries the caller's identity from the HTTP boundary into
// services.  Handlers never look at roles or hotel ids on their own; they
// ask the Context for a Scope.
package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

var (
	// ErrNoHotel is returned when a hotel-bound caller has no hotel on its token.
	ErrNoHotel = errors.New("no hotel bound to caller")
	// ErrHotelRequired is returned when a write needs one concrete hotel
	// and the caller did not pick one.
	ErrHotelRequired = errors.New("hotel_id is required")
	// ErrOutOfScope is returned when a caller names a hotel it cannot access.
	ErrOutOfScope = errors.New("hotel outside caller scope")
)

// Context is the authorization context of one request.  It is built once
// by the JWT middleware and passed explicitly to every service call.
type Context struct {
	UserID        uint64
	Role          string
	HotelID       *uint64 // token hotel, or impersonated hotel
	Impersonating bool
}

// IsMaster reports whether the caller acts as MASTER_ADMIN.
func (a Context) IsMaster() bool { return a.Role == model.RoleMasterAdmin }

// Scope is the set of hotels an operation may touch.
type Scope struct {
	All      bool
	HotelIDs []uint64
}

// Allows reports whether hotelID is inside the scope.
func (s Scope) Allows(hotelID uint64) bool {
	if s.All {
		return true
	}
	for _, id := range s.HotelIDs {
		if id == hotelID {
			return true
		}
	}
	return false
}

// Single returns the hotel when the scope names exactly one.
func (s Scope) Single() (uint64, bool) {
	if s.All || len(s.HotelIDs) != 1 {
		return 0, false
	}
	return s.HotelIDs[0], true
}

// ReadScope resolves the hotels a read may cover.  Hotel-bound callers
// always get their own hotel and the requested ids are ignored.  A master
// gets its impersonated hotel, else the requested ids, else every hotel.
func (a Context) ReadScope(requested []uint64) (Scope, error) {
	if !a.IsMaster() {
		if a.HotelID == nil || *a.HotelID == 0 {
			return Scope{}, ErrNoHotel
		}
		return Scope{HotelIDs: []uint64{*a.HotelID}}, nil
	}
	if a.HotelID != nil && *a.HotelID != 0 {
		return Scope{HotelIDs: []uint64{*a.HotelID}}, nil
	}
	if len(requested) > 0 {
		return Scope{HotelIDs: requested}, nil
	}
	return Scope{All: true}, nil
}

// WriteHotel resolves the single hotel a write applies to.
func (a Context) WriteHotel(requested uint64) (uint64, error) {
	if !a.IsMaster() {
		if a.HotelID == nil || *a.HotelID == 0 {
			return 0, ErrNoHotel
		}
		if requested != 0 && requested != *a.HotelID {
			return 0, ErrOutOfScope
		}
		return *a.HotelID, nil
	}
	if a.HotelID != nil && *a.HotelID != 0 {
		return *a.HotelID, nil
	}
	if requested == 0 {
		return 0, ErrHotelRequired
	}
	return requested, nil
}

// ParseHotelIDs reads a comma separated id list such as "3,7".  Blank and
// malformed items are skipped.
func ParseHotelIDs(raw string) []uint64 {
	var out []uint64
	for _, p := range strings.Split(raw, ",") {
		if n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64); err == nil && n > 0 {
			out = append(out, n)
		}
	}
	return out
}

type ctxKey struct{}

// WithContext stores a in ctx.
func WithContext(ctx context.Context, a Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the Context stored by WithContext.
func FromContext(ctx context.Context) (Context, bool) {
	a, ok := ctx.Value(ctxKey{}).(Context)
	return a, ok
}
