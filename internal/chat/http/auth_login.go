package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/parleyhq/parley/internal/chat/service"
	"github.com/parleyhq/parley/pkg/httpx"
	"github.com/parleyhq/parley/pkg/slogx"
)

type LoginHandler struct {
	UserService *service.UserService
	CookieTTL   time.Duration
}

type loginRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	DeviceFingerprint string `json:"deviceFingerprint"`
}

type loginResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
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
	}

	u, err := h.UserService.Authenticate(ctx, req.Email, req.Password, req.DeviceFingerprint)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// Deliberately generic: never reveal whether the email or the
			// password was wrong.
			writeError(w, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
			return
		}
		log.Error("login failed", "err", err)
		writeInternalError(w)
		return
	}

	setSessionCookies(w, u.Email, h.CookieTTL)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Success:  true,
		Username: u.Username,
	})
}
