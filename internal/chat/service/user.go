package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/parleyhq/parley/internal/chat/domain"
	"github.com/parleyhq/parley/internal/chat/store"
	"github.com/parleyhq/parley/pkg/cryptox"
	"github.com/parleyhq/parley/pkg/slogx"
)

const (
	MinPasswordLength = 8
	MinUsernameLength = 3
	MaxUsernameLength = 16
)

var (
	ErrEmailExists        = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidUsername    = errors.New("username must be between 3 and 16 characters")
)

// UserService implements the identity store operations: registration,
// login, credential rotation and account deletion. Accounts are keyed by
// normalized email; deletion cascades to the account's conversations.
type UserService struct {
	Store store.Store

	// AdminEmail, when set, grants the admin role to the matching account
	// at registration time. Comparison is against the normalized form.
	AdminEmail string
}

// Register creates a new account. The device fingerprint submitted at
// registration becomes the first trusted device.
func (s *UserService) Register(
	ctx context.Context,
	email, password, username, fingerprint string,
) (domain.User, error) {
	if len(password) < MinPasswordLength {
		return domain.User{}, ErrPasswordTooShort
	}
	if err := validateUsername(username); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	role := domain.RoleUser
	if s.AdminEmail != "" &&
		domain.NormalizeEmail(email) == domain.NormalizeEmail(s.AdminEmail) {
		role = domain.RoleAdmin
	}

	u := domain.User{
		Email:             strings.TrimSpace(email),
		Username:          username,
		PasswordHash:      hash,
		Role:              role,
		DeviceFingerprint: fingerprint,
		AllowLogging:      false,
		AllowTelemetry:    true,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailExists
		}
		return domain.User{}, err
	}

	return u, nil
}

// Authenticate checks the credential and, on success, unconditionally
// records the submitted fingerprint as the trusted device. Login is the
// only way a device becomes trusted.
func (s *UserService) Authenticate(
	ctx context.Context,
	email, password, fingerprint string,
) (domain.User, error) {
	log := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}

	if err := s.Store.Users().UpdateDeviceFingerprint(ctx, email, fingerprint); err != nil {
		// The login itself succeeded; a stale fingerprint only affects the
		// advisory device check.
		log.Warn("failed to record device fingerprint", "err", err)
	} else {
		u.DeviceFingerprint = fingerprint
	}

	return u, nil
}

// ChangePassword rotates the credential after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, email, current, next string) error {
	if len(next) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := cryptox.VerifyPassword(current, u.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.Store.Users().UpdatePasswordHash(ctx, email, hash)
}

// UpdateUsername sets a new display username.
func (s *UserService) UpdateUsername(ctx context.Context, email, username string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	return s.Store.Users().UpdateUsername(ctx, email, username)
}

// UpdateSettings merges the supplied preference flags; nil leaves a flag
// unchanged.
func (s *UserService) UpdateSettings(
	ctx context.Context,
	email string,
	allowLogging, allowTelemetry *bool,
) error {
	return s.Store.Users().UpdateSettings(ctx, email, allowLogging, allowTelemetry)
}

// Profile fetches the account record.
func (s *UserService) Profile(ctx context.Context, email string) (domain.User, error) {
	return s.Store.Users().GetUserByEmail(ctx, email)
}

// DeleteAccount verifies the credential and then destroys the account and
// every conversation owned by it, including its tenant-index entries.
func (s *UserService) DeleteAccount(ctx context.Context, email, password string) error {
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	tenant := domain.NormalizeEmail(email)
	if err := s.Store.Conversations().DeleteAllConversations(ctx, tenant); err != nil {
		return fmt.Errorf("failed to delete conversations: %w", err)
	}
	if err := s.Store.Conversations().RemoveTenant(ctx, tenant); err != nil {
		return fmt.Errorf("failed to remove tenant index entry: %w", err)
	}

	return s.Store.Users().DeleteUser(ctx, email)
}

func validateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return ErrInvalidUsername
	}
	return nil
}
