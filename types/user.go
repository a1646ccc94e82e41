package types

import "time"

// User represents the site administrator account.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the display login name.
	Username string `json:"username" db:"username"`

	// Email is the unique address used to sign in.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level (currently only "admin").
	Role string `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// RefreshTokenHash is the SHA-256 digest of the single active refresh
	// token, empty when the user is logged out. Never exposed.
	RefreshTokenHash string `json:"-" db:"refresh_token_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
