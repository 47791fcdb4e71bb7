package sqlite

import (
	"context"
	"strconv"
	"time"

	"github.com/parleyhq/parley/internal/chat/domain"
	"github.com/parleyhq/parley/internal/chat/store"
)

// Key scheme for identity records:
//
//	user:<normalized-email>  hash of account fields
//	users                    set of every normalized email
const (
	userKeyPrefix = "user:"
	accountsKey   = "users"
)

func userKey(email string) string {
	return userKeyPrefix + domain.NormalizeEmail(email)
}

type usersRepo struct {
	s *Store
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	fields, err := r.s.hashGetAll(ctx, userKey(email))
	if err != nil {
		return domain.User{}, err
	}
	if len(fields) == 0 {
		return domain.User{}, store.ErrNotFound
	}
	return mapUser(fields), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	key := userKey(u.Email)

	exists, err := r.s.hashExists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return store.ErrAlreadyExists
	}

	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}

	fields := map[string]string{
		"email":              u.Email, // original casing, for display
		"username":           u.Username,
		"password_hash":      u.PasswordHash,
		"role":               u.Role,
		"device_fingerprint": u.DeviceFingerprint,
		"allow_logging":      strconv.FormatBool(u.AllowLogging),
		"allow_telemetry":    strconv.FormatBool(u.AllowTelemetry),
		"otp_code":           "",
		"otp_expires_at":     "",
		"created_at":         u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":         u.CreatedAt.Format(time.RFC3339Nano),
	}
	if u.ResetOTP != nil {
		fields["otp_code"] = u.ResetOTP.Code
		fields["otp_expires_at"] = strconv.FormatInt(u.ResetOTP.ExpiresAt, 10)
	}

	if err := r.s.hashSet(ctx, key, fields); err != nil {
		return err
	}
	return r.s.setAdd(ctx, accountsKey, domain.NormalizeEmail(u.Email))
}

func (r *usersRepo) UpdateUsername(ctx context.Context, email, username string) error {
	return r.updateFields(ctx, email, map[string]string{"username": username})
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, email, newHash string) error {
	return r.updateFields(ctx, email, map[string]string{"password_hash": newHash})
}

func (r *usersRepo) UpdateDeviceFingerprint(ctx context.Context, email, fingerprint string) error {
	return r.updateFields(ctx, email, map[string]string{"device_fingerprint": fingerprint})
}

func (r *usersRepo) UpdateSettings(
	ctx context.Context,
	email string,
	allowLogging, allowTelemetry *bool,
) error {
	fields := make(map[string]string, 2)
	if allowLogging != nil {
		fields["allow_logging"] = strconv.FormatBool(*allowLogging)
	}
	if allowTelemetry != nil {
		fields["allow_telemetry"] = strconv.FormatBool(*allowTelemetry)
	}
	if len(fields) == 0 {
		// Nothing to merge; still report unknown accounts.
		exists, err := r.s.hashExists(ctx, userKey(email))
		if err != nil {
			return err
		}
		if !exists {
			return store.ErrNotFound
		}
		return nil
	}
	return r.updateFields(ctx, email, fields)
}

func (r *usersRepo) SetResetOTP(ctx context.Context, email string, otp domain.ResetOTP) error {
	return r.updateFields(ctx, email, map[string]string{
		"otp_code":       otp.Code,
		"otp_expires_at": strconv.FormatInt(otp.ExpiresAt, 10),
	})
}

func (r *usersRepo) ClearResetOTP(ctx context.Context, email string) error {
	return r.updateFields(ctx, email, map[string]string{
		"otp_code":       "",
		"otp_expires_at": "",
	})
}

func (r *usersRepo) CompleteReset(ctx context.Context, email, newHash string) error {
	return r.updateFields(ctx, email, map[string]string{
		"password_hash":  newHash,
		"otp_code":       "",
		"otp_expires_at": "",
	})
}

func (r *usersRepo) DeleteUser(ctx context.Context, email string) error {
	if err := r.s.setRemove(ctx, accountsKey, domain.NormalizeEmail(email)); err != nil {
		return err
	}
	return r.s.deleteKey(ctx, userKey(email))
}

func (r *usersRepo) ListEmails(ctx context.Context) ([]string, error) {
	return r.s.setMembers(ctx, accountsKey)
}

// updateFields merges the given fields into an existing record and bumps
// updated_at in the same batch. Unknown accounts report ErrNotFound rather
// than materializing a partial record.
func (r *usersRepo) updateFields(ctx context.Context, email string, fields map[string]string) error {
	key := userKey(email)

	exists, err := r.s.hashExists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}

	fields["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	return r.s.hashSet(ctx, key, fields)
}

func mapUser(fields map[string]string) domain.User {
	u := domain.User{
		Email:             fields["email"],
		Username:          fields["username"],
		PasswordHash:      fields["password_hash"],
		Role:              fields["role"],
		DeviceFingerprint: fields["device_fingerprint"],
		AllowLogging:      fields["allow_logging"] == "true",
		AllowTelemetry:    fields["allow_telemetry"] == "true",
		CreatedAt:         parseTime(fields["created_at"]),
		UpdatedAt:         parseTime(fields["updated_at"]),
	}

	if code := fields["otp_code"]; code != "" {
		expiresAt, err := strconv.ParseInt(fields["otp_expires_at"], 10, 64)
		if err == nil {
			u.ResetOTP = &domain.ResetOTP{Code: code, ExpiresAt: expiresAt}
		}
	}

	return u
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
