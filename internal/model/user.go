package model

import "time"

// Roles carried in the JWT "role" claim.
const (
	RoleCustomer  = "CUSTOMER"
	RoleTherapist = "THERAPIST"
	RoleAdmin     = "ADMIN"
)

// User represents a row of the users table.  Role is CUSTOMER, THERAPIST
// or ADMIN; PasswordHash is a bcrypt hash.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	DisplayName  string    // users.display_name
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the refresh_tokens table.  Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
