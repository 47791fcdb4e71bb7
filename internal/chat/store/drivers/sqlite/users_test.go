package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/chat/domain"
	"github.com/parleyhq/parley/internal/chat/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st *Store, email string) {
	t.Helper()
	require.NoError(t, st.Users().CreateUser(context.Background(), domain.User{
		Email:             email,
		Username:          "tester",
		PasswordHash:      "argon2id-hash",
		Role:              domain.RoleUser,
		DeviceFingerprint: "fp-1",
		AllowTelemetry:    true,
	}))
}

func TestUsersCreateAndGet(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	t.Run("round trips an account", func(t *testing.T) {
		seedUser(t, st, "Alice@Example.com")

		u, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, "Alice@Example.com", u.Email)
		require.Equal(t, "tester", u.Username)
		require.Equal(t, "argon2id-hash", u.PasswordHash)
		require.Nil(t, u.ResetOTP)
		require.False(t, u.CreatedAt.IsZero())
		require.False(t, u.UpdatedAt.IsZero())
	})

	t.Run("create is keyed on the normalized email", func(t *testing.T) {
		err := st.Users().CreateUser(ctx, domain.User{Email: "ALICE@example.COM"})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("unknown account reports not found", func(t *testing.T) {
		_, err := st.Users().GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("listing returns normalized emails", func(t *testing.T) {
		emails, err := st.Users().ListEmails(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"alice@example.com"}, emails)
	})
}

func TestUsersPartialUpdates(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "alice@example.com")

	t.Run("username update leaves other fields alone", func(t *testing.T) {
		require.NoError(t, st.Users().UpdateUsername(ctx, "alice@example.com", "renamed"))

		u, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, "renamed", u.Username)
		require.Equal(t, "argon2id-hash", u.PasswordHash)
		require.Equal(t, "fp-1", u.DeviceFingerprint)
	})

	t.Run("fingerprint update leaves credentials alone", func(t *testing.T) {
		require.NoError(t, st.Users().UpdateDeviceFingerprint(ctx, "alice@example.com", "fp-2"))

		u, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, "fp-2", u.DeviceFingerprint)
		require.Equal(t, "argon2id-hash", u.PasswordHash)
		require.Equal(t, "renamed", u.Username)
	})

	t.Run("settings merge respects nil as leave-unchanged", func(t *testing.T) {
		yes := true
		require.NoError(t, st.Users().UpdateSettings(ctx, "alice@example.com", &yes, nil))

		u, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.True(t, u.AllowLogging)
		require.True(t, u.AllowTelemetry)
	})

	t.Run("updates bump updated_at", func(t *testing.T) {
		before, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)

		time.Sleep(2 * time.Millisecond)
		require.NoError(t, st.Users().UpdateUsername(ctx, "alice@example.com", "again"))

		after, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.True(t, after.UpdatedAt.After(before.UpdatedAt))
		require.Equal(t, before.CreatedAt, after.CreatedAt)
	})

	t.Run("updates on unknown accounts report not found", func(t *testing.T) {
		err := st.Users().UpdateUsername(ctx, "nobody@example.com", "ghost")
		require.ErrorIs(t, err, store.ErrNotFound)

		yes := true
		err = st.Users().UpdateSettings(ctx, "nobody@example.com", &yes, nil)
		require.ErrorIs(t, err, store.ErrNotFound)

		err = st.Users().UpdateSettings(ctx, "nobody@example.com", nil, nil)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestUsersResetOTPLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "alice@example.com")

	otp := domain.ResetOTP{Code: "004200", ExpiresAt: time.Now().Add(time.Minute).UnixMilli()}
	require.NoError(t, st.Users().SetResetOTP(ctx, "alice@example.com", otp))

	u, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, u.ResetOTP)
	require.Equal(t, "004200", u.ResetOTP.Code) // leading zeros survive storage
	require.Equal(t, otp.ExpiresAt, u.ResetOTP.ExpiresAt)

	t.Run("complete reset swaps hash and clears the code in one write", func(t *testing.T) {
		require.NoError(t, st.Users().CompleteReset(ctx, "alice@example.com", "new-hash"))

		u, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, "new-hash", u.PasswordHash)
		require.Nil(t, u.ResetOTP)
	})

	t.Run("clear on an account without a code is harmless", func(t *testing.T) {
		require.NoError(t, st.Users().ClearResetOTP(ctx, "alice@example.com"))
	})
}

func TestUsersDelete(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "alice@example.com")

	require.NoError(t, st.Users().DeleteUser(ctx, "ALICE@example.com"))

	_, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	emails, err := st.Users().ListEmails(ctx)
	require.NoError(t, err)
	require.Empty(t, emails)

	// Deleting an unknown account is a no-op, not an error.
	require.NoError(t, st.Users().DeleteUser(ctx, "alice@example.com"))
}
