package domain

import (
	"strings"
	"time"
)

// Roles assignable to a user record.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account record keyed by its normalized email. Email is stored
// with its original casing for display; all lookups go through
// NormalizeEmail so at most one record exists per normalized address.
type User struct {
	Email             string    // display casing, normalized form is the key
	Username          string    // 3-16 chars, mutable
	PasswordHash      string    // argon2 encoded
	Role              string    // RoleUser or RoleAdmin
	DeviceFingerprint string    // opaque client hash, last trusted device
	AllowLogging      bool      // prompt-logging preference
	AllowTelemetry    bool      // usage-telemetry preference
	ResetOTP          *ResetOTP // pending password-reset code (nil when none)
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ResetOTP is a pending password-reset code embedded in the user record.
// A code is single-use: a successful reset clears it, and an expired code
// never validates even if it matches.
type ResetOTP struct {
	Code      string // exactly 6 ASCII digits, leading zeros preserved
	ExpiresAt int64  // absolute deadline, epoch milliseconds
}

// Expired reports whether the code deadline has passed at the given time.
func (o ResetOTP) Expired(now time.Time) bool {
	return now.UnixMilli() > o.ExpiresAt
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// NormalizeEmail lowercases and trims an email for use as an identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
