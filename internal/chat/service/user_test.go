package service

import (
	"context"
	"testing"

	"github.com/parleyhq/parley/internal/chat/domain"
	"github.com/parleyhq/parley/internal/chat/store"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &UserService{Store: st}

	t.Run("creates an account with default settings", func(t *testing.T) {
		u, err := svc.Register(ctx, "alice@example.com", "password123", "alice", "fp-1")
		require.NoError(t, err)
		require.Equal(t, domain.RoleUser, u.Role)
		require.False(t, u.AllowLogging)
		require.True(t, u.AllowTelemetry)

		stored, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, "alice", stored.Username)
		require.Equal(t, "fp-1", stored.DeviceFingerprint)
		require.NotEqual(t, "password123", stored.PasswordHash)
	})

	t.Run("rejects duplicate email regardless of casing", func(t *testing.T) {
		_, err := svc.Register(ctx, "ALICE@Example.COM", "password123", "alice2", "fp-2")
		require.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("preserves display casing but keys on normalized form", func(t *testing.T) {
		_, err := svc.Register(ctx, "Bob@Example.com", "password123", "bobby", "fp-3")
		require.NoError(t, err)

		stored, err := st.Users().GetUserByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		require.Equal(t, "Bob@Example.com", stored.Email)
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		_, err := svc.Register(ctx, "carol@example.com", "short", "carol", "")
		require.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("rejects out-of-range usernames", func(t *testing.T) {
		_, err := svc.Register(ctx, "carol@example.com", "password123", "ab", "")
		require.ErrorIs(t, err, ErrInvalidUsername)

		_, err = svc.Register(ctx, "carol@example.com", "password123", "averyveryverylongname", "")
		require.ErrorIs(t, err, ErrInvalidUsername)
	})
}

func TestRegisterAdminRole(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &UserService{Store: st, AdminEmail: "Admin@Example.com"}

	u, err := svc.Register(ctx, "admin@example.com", "password123", "admin", "")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, u.Role)
	require.True(t, u.IsAdmin())

	other, err := svc.Register(ctx, "user@example.com", "password123", "user", "")
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, other.Role)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &UserService{Store: st}

	_, err := svc.Register(ctx, "alice@example.com", "password123", "alice", "fp-original")
	require.NoError(t, err)

	t.Run("valid credentials succeed case-insensitively", func(t *testing.T) {
		u, err := svc.Authenticate(ctx, "ALICE@example.com", "password123", "fp-original")
		require.NoError(t, err)
		require.Equal(t, "alice", u.Username)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "alice@example.com", "wrong-pass", "fp-original")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown account gets the same error as a wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody@example.com", "password123", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("login overwrites the trusted fingerprint", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "alice@example.com", "password123", "fp-new-device")
		require.NoError(t, err)

		stored, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, "fp-new-device", stored.DeviceFingerprint)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &UserService{Store: st}

	_, err := svc.Register(ctx, "alice@example.com", "password123", "alice", "")
	require.NoError(t, err)

	t.Run("requires the current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, "alice@example.com", "wrong-pass", "newpassword1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("rejects a short replacement", func(t *testing.T) {
		err := svc.ChangePassword(ctx, "alice@example.com", "password123", "tiny")
		require.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("rotates the credential", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, "alice@example.com", "password123", "newpassword1"))

		_, err := svc.Authenticate(ctx, "alice@example.com", "password123", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Authenticate(ctx, "alice@example.com", "newpassword1", "")
		require.NoError(t, err)
	})
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &UserService{Store: st}

	_, err := svc.Register(ctx, "alice@example.com", "password123", "alice", "")
	require.NoError(t, err)

	yes := true
	no := false

	t.Run("partial update leaves the other flag untouched", func(t *testing.T) {
		require.NoError(t, svc.UpdateSettings(ctx, "alice@example.com", &yes, nil))

		u, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.True(t, u.AllowLogging)
		require.True(t, u.AllowTelemetry) // registration default preserved
	})

	t.Run("both flags update together", func(t *testing.T) {
		require.NoError(t, svc.UpdateSettings(ctx, "alice@example.com", &no, &no))

		u, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.False(t, u.AllowLogging)
		require.False(t, u.AllowTelemetry)
	})

	t.Run("unknown account is reported", func(t *testing.T) {
		err := svc.UpdateSettings(ctx, "nobody@example.com", &yes, nil)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := &UserService{Store: st}
	history := &HistoryService{Store: st}

	_, err := users.Register(ctx, "alice@example.com", "password123", "alice", "")
	require.NoError(t, err)

	saved, err := history.Save(ctx, "alice@example.com", domain.Conversation{Title: "hello"})
	require.NoError(t, err)

	t.Run("requires the password", func(t *testing.T) {
		err := users.DeleteAccount(ctx, "alice@example.com", "wrong-pass")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("removes the account and its conversations", func(t *testing.T) {
		require.NoError(t, users.DeleteAccount(ctx, "alice@example.com", "password123"))

		_, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = history.Get(ctx, "alice@example.com", saved.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		ids, err := st.Conversations().ListConversationIDs(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Empty(t, ids)
	})
}
