package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/parleyhq/parley/internal/chat/domain"
	"github.com/parleyhq/parley/internal/chat/service"
	"github.com/parleyhq/parley/internal/chat/store"
	"github.com/parleyhq/parley/pkg/httpx"
	"github.com/parleyhq/parley/pkg/slogx"
)

// userProfile is the user record minus the credential. The password hash
// never leaves the service.
type userProfile struct {
	Email             string    `json:"email"`
	Username          string    `json:"username"`
	Role              string    `json:"role"`
	DeviceFingerprint string    `json:"deviceFingerprint,omitempty"`
	AllowLogging      bool      `json:"allowLogging"`
	AllowTelemetry    bool      `json:"allowTelemetry"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func profileOf(u domain.User) userProfile {
	return userProfile{
		Email:             u.Email,
		Username:          u.Username,
		Role:              u.Role,
		DeviceFingerprint: u.DeviceFingerprint,
		AllowLogging:      u.AllowLogging,
		AllowTelemetry:    u.AllowTelemetry,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

type ProfileHandler struct {
	UserService *service.UserService
}

type profileRequest struct {
	Email string `json:"email"`
}

type profileResponse struct {
	Success bool        `json:"success"`
	User    userProfile `json:"user"`
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	u, err := h.UserService.Profile(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		log.Error("profile lookup failed", "err", err)
		writeInternalError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, profileResponse{Success: true, User: profileOf(u)})
}

type UpdateUsernameHandler struct {
	UserService *service.UserService
}

type updateUsernameRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (h *UpdateUsernameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req updateUsernameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case req.Email == "":
		writeError(w, http.StatusBadRequest, "email is required")
		return
	case req.Username == "":
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	if err := h.UserService.UpdateUsername(ctx, req.Email, req.Username); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUsername):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "account not found")
		default:
			log.Error("username update failed", "err", err)
			writeInternalError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

type UpdateSettingsHandler struct {
	UserService *service.UserService
}

type updateSettingsRequest struct {
	Email          string `json:"email"`
	AllowLogging   *bool  `json:"allowLogging"`
	AllowTelemetry *bool  `json:"allowTelemetry"`
}

func (h *UpdateSettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req updateSettingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	err := h.UserService.UpdateSettings(ctx, req.Email, req.AllowLogging, req.AllowTelemetry)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		log.Error("settings update failed", "err", err)
		writeInternalError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
