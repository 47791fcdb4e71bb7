package http

import (
	"errors"
	"net/http"

	"github.com/parleyhq/parley/internal/chat/service"
	"github.com/parleyhq/parley/internal/chat/store"
	"github.com/parleyhq/parley/pkg/httpx"
	"github.com/parleyhq/parley/pkg/slogx"
)

type DeleteAccountHandler struct {
	UserService *service.UserService
}

type deleteAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *DeleteAccountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req deleteAccountRequest
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

	if err := h.UserService.DeleteAccount(ctx, req.Email, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "account not found")
		default:
			log.Error("account deletion failed", "err", err)
			writeInternalError(w)
		}
		return
	}

	clearSessionCookies(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
