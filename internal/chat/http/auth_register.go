package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/parleyhq/parley/internal/chat/service"
	"github.com/parleyhq/parley/pkg/httpx"
	"github.com/parleyhq/parley/pkg/slogx"
)

type RegisterHandler struct {
	UserService *service.UserService
	CookieTTL   time.Duration
}

type registerRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	Username          string `json:"username"`
	DeviceFingerprint string `json:"deviceFingerprint"`
}

type registerResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case req.Email == "":
		writeError(w, http.StatusBadRequest, "email is required")
		return
	case req.Password == "":
		writeError(w, http.StatusBadRequest, "password is required")
		return
	case req.Username == "":
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	u, err := h.UserService.Register(ctx, req.Email, req.Password, req.Username, req.DeviceFingerprint)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrPasswordTooShort),
			errors.Is(err, service.ErrInvalidUsername):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Error("registration failed", "err", err)
			writeInternalError(w)
		}
		return
	}

	setSessionCookies(w, u.Email, h.CookieTTL)
	httpx.WriteJSON(w, http.StatusCreated, registerResponse{
		Success:  true,
		Username: u.Username,
	})
}
