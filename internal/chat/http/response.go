package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/parleyhq/parley/pkg/httpx"
)

// Every response carries a success flag; failures add a short human-readable
// message. The UI matches message text against field keywords (email,
// username, password) to decide where to surface it.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const internalErrorMessage = "Something went wrong. Please try again later."

func writeError(w http.ResponseWriter, code int, message string) {
	httpx.WriteJSON(w, code, errorResponse{Success: false, Message: message})
}

func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, internalErrorMessage)
}

const maxBodyBytes = 1 << 20 // conversation payloads can carry image data

// decodeJSON decodes the request body into v, rejecting bodies that are
// missing, oversized or malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is required")
		}
		return fmt.Errorf("invalid request body")
	}
	return nil
}
