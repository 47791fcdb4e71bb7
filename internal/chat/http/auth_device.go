package http

import (
	"net/http"

	"github.com/parleyhq/parley/internal/chat/service"
	"github.com/parleyhq/parley/pkg/httpx"
	"github.com/parleyhq/parley/pkg/slogx"
)

type VerifyDeviceHandler struct {
	DeviceService *service.DeviceService
}

type verifyDeviceRequest struct {
	Email       string `json:"email"`
	Fingerprint string `json:"fingerprint"`
}

type verifyDeviceResponse struct {
	Success bool   `json:"success"`
	Trusted bool   `json:"trusted"`
	Message string `json:"message,omitempty"`
}

func (h *VerifyDeviceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req verifyDeviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case req.Email == "":
		writeError(w, http.StatusBadRequest, "email is required")
		return
	case req.Fingerprint == "":
		writeError(w, http.StatusBadRequest, "fingerprint is required")
		return
	}

	trusted, err := h.DeviceService.VerifyDevice(ctx, req.Email, req.Fingerprint)
	if err != nil {
		log.Error("device verification failed", "err", err)
		writeInternalError(w)
		return
	}

	if !trusted {
		// Advisory signal only: the caller should force a fresh login.
		httpx.WriteJSON(w, http.StatusForbidden, verifyDeviceResponse{
			Success: false,
			Trusted: false,
			Message: "device not recognized",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, verifyDeviceResponse{Success: true, Trusted: true})
}
