package http

import (
	"errors"
	"net/http"

	"github.com/parleyhq/parley/internal/chat/service"
	"github.com/parleyhq/parley/internal/chat/store"
	"github.com/parleyhq/parley/pkg/httpx"
	"github.com/parleyhq/parley/pkg/slogx"
)

type ChangePasswordHandler struct {
	UserService *service.UserService
}

type changePasswordRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *ChangePasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case req.Email == "":
		writeError(w, http.StatusBadRequest, "email is required")
		return
	case req.CurrentPassword == "":
		writeError(w, http.StatusBadRequest, "currentPassword is required")
		return
	case req.NewPassword == "":
		writeError(w, http.StatusBadRequest, "newPassword is required")
		return
	}

	err := h.UserService.ChangePassword(ctx, req.Email, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooShort):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "account not found")
		default:
			log.Error("password change failed", "err", err)
			writeInternalError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

type RequestResetHandler struct {
	ResetService *service.ResetService
}

type requestResetRequest struct {
	Email string `json:"email"`
}

// The response is success-shaped whether or not the account exists, so this
// endpoint can't be used to enumerate registered addresses.
const resetRequestedMessage = "If an account exists for this email, a reset code has been sent."

func (h *RequestResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req requestResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.ResetService.Request(ctx, req.Email); err != nil {
		log.Error("reset request failed", "err", err)
		writeInternalError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": resetRequestedMessage,
	})
}

type ResetPasswordHandler struct {
	ResetService *service.ResetService
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (h *ResetPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case req.Email == "":
		writeError(w, http.StatusBadRequest, "email is required")
		return
	case req.OTP == "":
		writeError(w, http.StatusBadRequest, "otp is required")
		return
	case req.NewPassword == "":
		writeError(w, http.StatusBadRequest, "newPassword is required")
		return
	}

	err := h.ResetService.Verify(ctx, req.Email, req.OTP, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooShort),
			errors.Is(err, service.ErrInvalidOrExpiredCode):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Error("password reset failed", "err", err)
			writeInternalError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
