package store

import (
	"context"
	"errors"

	"github.com/parleyhq/parley/internal/chat/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// The backing model is a key-value one: user records and conversations are
// hashes, the tenant indexes are sets. Every repo operation touches a single
// key group, so drivers need no multi-key transactions — read-your-writes
// per key is all the service layer assumes.
type Store interface {
	Users() Users
	Conversations() Conversations

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backend is still reachable.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByEmail returns a user by email. Matching is case-insensitive;
	// the returned record preserves the email casing used at registration.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user keyed by the normalized email and adds
	// it to the account index. Returns ErrAlreadyExists when a record with
	// the same normalized email is present.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUsername sets the username and bumps updated_at. Other fields
	// are left untouched.
	UpdateUsername(ctx context.Context, email, username string) error

	// UpdatePasswordHash sets the password hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, email, newHash string) error

	// UpdateDeviceFingerprint records the last trusted device fingerprint.
	UpdateDeviceFingerprint(ctx context.Context, email, fingerprint string) error

	// UpdateSettings merges the supplied preference flags. A nil pointer
	// leaves the corresponding field unchanged.
	UpdateSettings(ctx context.Context, email string, allowLogging, allowTelemetry *bool) error

	// SetResetOTP attaches a pending password-reset code, replacing any
	// prior pending code.
	SetResetOTP(ctx context.Context, email string, otp domain.ResetOTP) error

	// ClearResetOTP removes any pending password-reset code.
	ClearResetOTP(ctx context.Context, email string) error

	// CompleteReset sets the new password hash and clears the pending code
	// in a single record write.
	CompleteReset(ctx context.Context, email, newHash string) error

	// DeleteUser removes the record and its account-index entry. Deleting
	// an unknown email is a no-op.
	DeleteUser(ctx context.Context, email string) error

	// ListEmails returns the normalized email of every known account.
	ListEmails(ctx context.Context) ([]string, error)
}

type Conversations interface {
	// SaveConversation upserts the record under (userID, c.ID) and keeps
	// both the tenant's conversation index and the global tenant index in
	// step. Preserves created_at on resave and always refreshes updated_at.
	SaveConversation(ctx context.Context, userID string, c domain.Conversation) error

	// GetConversation returns the full record or ErrNotFound.
	GetConversation(ctx context.Context, userID, conversationID string) (domain.Conversation, error)

	// ListConversationIDs returns the tenant's conversation index.
	ListConversationIDs(ctx context.Context, userID string) ([]string, error)

	// DeleteConversation removes the record and its index entry. Returns
	// ErrNotFound when the record was already gone; the index entry is
	// removed regardless, which makes it usable for pruning dangling
	// entries.
	DeleteConversation(ctx context.Context, userID, conversationID string) error

	// DeleteAllConversations removes every conversation for the tenant and
	// clears the tenant's index set. The tenant stays in the global index.
	DeleteAllConversations(ctx context.Context, userID string) error

	// ListTenants returns every tenant ID in the global index.
	ListTenants(ctx context.Context) ([]string, error)

	// RemoveTenant drops the tenant from the global index. Used by account
	// deletion after the tenant's conversations are gone.
	RemoveTenant(ctx context.Context, userID string) error
}
