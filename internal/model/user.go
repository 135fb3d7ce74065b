package model

import "time"

// Role names carried in the access token.
const (
	RoleMasterAdmin = "MASTER_ADMIN"
	RoleHotelAdmin  = "HOTEL_ADMIN"
	RoleHotelStaff  = "HOTEL_STAFF"
)

// IsValidRole reports whether r is one of the known role names.
func IsValidRole(r string) bool {
	switch r {
	case RoleMasterAdmin, RoleHotelAdmin, RoleHotelStaff:
		return true
	}
	return false
}

// User represents an application user record as stored in the
// `users` table.  HotelID is nil for MASTER_ADMIN accounts and set
// for every hotel-bound account.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	Role         – MASTER_ADMIN, HOTEL_ADMIN or HOTEL_STAFF.
//	HotelID      – hotel the user works for (nullable).
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	HotelID      *uint64   // users.hotel_id (nullable)
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The
// plain token is never stored; only its SHA‑256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
