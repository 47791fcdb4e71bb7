package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/chat/domain"
	"github.com/stretchr/testify/require"
)

// captureMailer records issued codes instead of delivering them.
type captureMailer struct {
	to    []string
	codes []string
	err   error
}

func (m *captureMailer) SendResetCode(_ context.Context, to, code string, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.codes = append(m.codes, code)
	return nil
}

func TestResetRequest(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{}
	users := &UserService{Store: st}
	svc := &ResetService{Store: st, Mailer: mailer}

	_, err := users.Register(ctx, "alice@example.com", "password123", "alice", "")
	require.NoError(t, err)

	t.Run("issues a six digit code and mails it", func(t *testing.T) {
		require.NoError(t, svc.Request(ctx, "alice@example.com"))
		require.Len(t, mailer.codes, 1)
		require.Len(t, mailer.codes[0], 6)

		u, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, u.ResetOTP)
		require.Equal(t, mailer.codes[0], u.ResetOTP.Code)
		require.Greater(t, u.ResetOTP.ExpiresAt, time.Now().UnixMilli())
	})

	t.Run("reissuing overwrites the pending code", func(t *testing.T) {
		require.NoError(t, svc.Request(ctx, "alice@example.com"))
		require.Len(t, mailer.codes, 2)

		u, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, mailer.codes[1], u.ResetOTP.Code)
	})

	t.Run("unknown account is a silent no-op", func(t *testing.T) {
		before := len(mailer.codes)
		require.NoError(t, svc.Request(ctx, "nobody@example.com"))
		require.Len(t, mailer.codes, before)
	})

	t.Run("delivery failure does not surface and the code stays persisted", func(t *testing.T) {
		failing := &ResetService{Store: st, Mailer: &captureMailer{err: errors.New("smtp down")}}
		require.NoError(t, failing.Request(ctx, "alice@example.com"))

		u, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, u.ResetOTP)
	})
}

func TestResetVerify(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := &captureMailer{}
	users := &UserService{Store: st}
	svc := &ResetService{Store: st, Mailer: mailer}

	_, err := users.Register(ctx, "alice@example.com", "password123", "alice", "")
	require.NoError(t, err)

	issue := func(t *testing.T) string {
		t.Helper()
		require.NoError(t, svc.Request(ctx, "alice@example.com"))
		u, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, u.ResetOTP)
		return u.ResetOTP.Code
	}

	t.Run("valid code rotates the password and is single use", func(t *testing.T) {
		code := issue(t)

		require.NoError(t, svc.Verify(ctx, "alice@example.com", code, "newpassword1"))

		_, err := users.Authenticate(ctx, "alice@example.com", "newpassword1", "")
		require.NoError(t, err)

		// Replay must fail: the code was consumed by the first use.
		err = svc.Verify(ctx, "alice@example.com", code, "anotherpassword1")
		require.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	})

	t.Run("wrong code fails without consuming the pending one", func(t *testing.T) {
		code := issue(t)

		err := svc.Verify(ctx, "alice@example.com", "000000", "newpassword2")
		require.ErrorIs(t, err, ErrInvalidOrExpiredCode)

		require.NoError(t, svc.Verify(ctx, "alice@example.com", code, "newpassword2"))
	})

	t.Run("comparison is exact string equality", func(t *testing.T) {
		require.NoError(t, st.Users().SetResetOTP(ctx, "alice@example.com", domain.ResetOTP{
			Code:      "007007",
			ExpiresAt: time.Now().Add(time.Minute).UnixMilli(),
		}))

		// A numerically equal but textually different code must not match.
		err := svc.Verify(ctx, "alice@example.com", "7007", "newpassword3")
		require.ErrorIs(t, err, ErrInvalidOrExpiredCode)

		require.NoError(t, svc.Verify(ctx, "alice@example.com", "007007", "newpassword3"))
	})

	t.Run("expired code fails and is cleared", func(t *testing.T) {
		require.NoError(t, st.Users().SetResetOTP(ctx, "alice@example.com", domain.ResetOTP{
			Code:      "123456",
			ExpiresAt: time.Now().Add(-time.Second).UnixMilli(),
		}))

		err := svc.Verify(ctx, "alice@example.com", "123456", "newpassword4")
		require.ErrorIs(t, err, ErrInvalidOrExpiredCode)

		u, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Nil(t, u.ResetOTP)
	})

	t.Run("no pending code fails", func(t *testing.T) {
		err := svc.Verify(ctx, "alice@example.com", "123456", "newpassword5")
		require.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	})

	t.Run("unknown account gets the uniform error", func(t *testing.T) {
		err := svc.Verify(ctx, "nobody@example.com", "123456", "newpassword6")
		require.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	})

	t.Run("short replacement password is rejected before any check", func(t *testing.T) {
		err := svc.Verify(ctx, "alice@example.com", "123456", "tiny")
		require.ErrorIs(t, err, ErrPasswordTooShort)
	})
}
