package service

import (
	"context"
	"errors"

	"github.com/parleyhq/parley/internal/chat/store"
)

// DeviceService is the device trust gate. The fingerprint is an opaque
// client-derived string: the gate only stores and compares it, as a
// low-assurance "same browser as before" signal. It is not a cryptographic
// proof and never mutates state — trust is only established by a successful
// login overwriting the stored fingerprint.
type DeviceService struct {
	Store store.Store
}

// VerifyDevice reports whether the submitted fingerprint matches the one on
// file. Unknown accounts and accounts with no stored fingerprint are both
// not trusted.
func (s *DeviceService) VerifyDevice(ctx context.Context, email, fingerprint string) (bool, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if u.DeviceFingerprint == "" {
		return false, nil
	}

	return u.DeviceFingerprint == fingerprint, nil
}
