package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/parleyhq/parley/internal/chat/domain"
	"github.com/parleyhq/parley/internal/chat/mail"
	"github.com/parleyhq/parley/internal/chat/store"
	"github.com/parleyhq/parley/pkg/cryptox"
	"github.com/parleyhq/parley/pkg/slogx"
)

const (
	// DefaultResetTTL is the validity window of a password-reset code.
	DefaultResetTTL = 15 * time.Minute

	resetCodeDigits = 6
)

// ErrInvalidOrExpiredCode is returned for every verification failure: no
// pending code, wrong code, or a code past its deadline. The wording is
// deliberately uniform so callers can't tell which check failed.
var ErrInvalidOrExpiredCode = errors.New("invalid or expired reset code")

// ResetService drives the OTP password-reset state machine. Each account has
// at most one pending code; issuing a new one overwrites the previous, and a
// code is consumed by the first successful verification or by expiry.
type ResetService struct {
	Store  store.Store
	Mailer mail.Mailer
	TTL    time.Duration // zero means DefaultResetTTL
}

func (s *ResetService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultResetTTL
	}
	return s.TTL
}

// Request issues a fresh reset code for the account and hands it to the mail
// collaborator. Unknown accounts are a silent no-op so the caller-visible
// behaviour never reveals whether an address is registered. A delivery
// failure is logged but not surfaced either: the code is already persisted,
// so a follow-up request simply reissues.
func (s *ResetService) Request(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	code, err := cryptox.GenerateNumericCode(resetCodeDigits)
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}

	otp := domain.ResetOTP{
		Code:      code,
		ExpiresAt: time.Now().Add(s.ttl()).UnixMilli(),
	}
	if err := s.Store.Users().SetResetOTP(ctx, email, otp); err != nil {
		return fmt.Errorf("failed to persist reset code: %w", err)
	}

	if err := s.Mailer.SendResetCode(ctx, u.Email, code, s.ttl()); err != nil {
		log.Warn("failed to deliver reset code", "err", err)
	}

	return nil
}

// Verify validates the submitted code and, when it matches, rotates the
// password and clears the code in a single record write. Comparison is exact
// string equality — "007" does not validate a stored "07" — and the expiry
// deadline is hard.
func (s *ResetService) Verify(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredCode
		}
		return err
	}

	if u.ResetOTP == nil {
		return ErrInvalidOrExpiredCode
	}

	if u.ResetOTP.Expired(time.Now()) {
		// Expiry detection consumes the code too, matching a successful
		// verification: an expired code must never validate later.
		if err := s.Store.Users().ClearResetOTP(ctx, email); err != nil {
			slogx.FromContext(ctx).Warn("failed to clear expired reset code", "err", err)
		}
		return ErrInvalidOrExpiredCode
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(u.ResetOTP.Code)) != 1 {
		return ErrInvalidOrExpiredCode
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.Store.Users().CompleteReset(ctx, email, hash)
}
