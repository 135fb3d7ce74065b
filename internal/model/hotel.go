package model

import "time"

// Hotel is a tenant.  Every room type, reservation and ledger entry
// belongs to exactly one hotel; staff users are bound to one hotel
// while MASTER_ADMIN users are not.
//
// Fields:
//
//	ID        – primary key identifier.
//	Code      – short unique code, stored upper-case.
//	Name      – display name.
//	Currency  – currency the hotel prices rooms in (TRY by default).
//	Active    – inactive hotels are hidden from scoped listings.
//	CreatedAt – creation timestamp.
//	UpdatedAt – last update timestamp.
type Hotel struct {
	ID        uint64    `json:"id"`         // hotels.id
	Code      string    `json:"code"`       // hotels.code
	Name      string    `json:"name"`       // hotels.name
	Currency  string    `json:"currency"`   // hotels.currency
	Active    bool      `json:"active"`     // hotels.active
	CreatedAt time.Time `json:"created_at"` // hotels.created_at
	UpdatedAt time.Time `json:"updated_at"` // hotels.updated_at
}
