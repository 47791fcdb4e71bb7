package http

import (
	"errors"
	"net/http"

	"github.com/parleyhq/parley/internal/chat/service"
	"github.com/parleyhq/parley/internal/chat/store"
	"github.com/parleyhq/parley/pkg/httpx"
	"github.com/parleyhq/parley/pkg/slogx"
)

// adminHeader names the acting administrator. The guard resolves it against
// the identity store and requires the admin role; no handler repeats the
// check.
const adminHeader = "x-user-email"

// AdminGuard is the shared capability check for administrative routes.
func AdminGuard(adminService *service.AdminService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			email := r.Header.Get(adminHeader)
			if email == "" {
				writeError(w, http.StatusForbidden, "administrator access required")
				return
			}

			if err := adminService.Authorize(ctx, email); err != nil {
				if errors.Is(err, service.ErrNotAdmin) {
					log.Warn("admin access denied", "email", email)
					writeError(w, http.StatusForbidden, "administrator access required")
					return
				}
				log.Error("admin authorization failed", "err", err)
				writeInternalError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type AdminHandler struct {
	AdminService *service.AdminService
}

func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	users, err := h.AdminService.ListUsers(ctx)
	if err != nil {
		log.Error("admin user listing failed", "err", err)
		writeInternalError(w)
		return
	}

	profiles := make([]userProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, profileOf(u))
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"users":   profiles,
	})
}

func (h *AdminHandler) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	conversations, err := h.AdminService.ListAllConversations(ctx)
	if err != nil {
		log.Error("admin conversation listing failed", "err", err)
		writeInternalError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"conversations": conversations,
	})
}

type adminDeleteUserRequest struct {
	Email string `json:"email"`
}

func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req adminDeleteUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.AdminService.DeleteUser(ctx, req.Email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		log.Error("admin user deletion failed", "err", err)
		writeInternalError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AdminHandler) HandleDeleteAllUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.AdminService.DeleteAllUsersExceptAdmin(ctx); err != nil {
		log.Error("admin bulk user deletion failed", "err", err)
		writeInternalError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AdminHandler) HandleDeleteAllChats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.AdminService.DeleteAllConversations(ctx); err != nil {
		log.Error("admin bulk conversation deletion failed", "err", err)
		writeInternalError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
