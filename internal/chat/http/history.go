package http

import (
	"errors"
	"net/http"

	"github.com/parleyhq/parley/internal/chat/domain"
	"github.com/parleyhq/parley/internal/chat/service"
	"github.com/parleyhq/parley/internal/chat/store"
	"github.com/parleyhq/parley/pkg/httpx"
	"github.com/parleyhq/parley/pkg/slogx"
)

// HistoryHandler serves the conversation persistence routes. The tenant is
// the caller-supplied userId; the handler doesn't re-derive it from cookies.
type HistoryHandler struct {
	HistoryService *service.HistoryService
}

type saveConversationRequest struct {
	UserID       string               `json:"userId"`
	Conversation *domain.Conversation `json:"conversation"`
}

func (h *HistoryHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req saveConversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case req.UserID == "":
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	case req.Conversation == nil:
		writeError(w, http.StatusBadRequest, "conversation is required")
		return
	}

	saved, err := h.HistoryService.Save(ctx, req.UserID, *req.Conversation)
	if err != nil {
		log.Error("conversation save failed", "err", err, "user_id", req.UserID)
		writeInternalError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"conversationId": saved.ID,
	})
}

func (h *HistoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := r.URL.Query().Get("userId")
	conversationID := r.URL.Query().Get("conversationId")
	switch {
	case userID == "":
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	case conversationID == "":
		writeError(w, http.StatusBadRequest, "conversationId is required")
		return
	}

	c, err := h.HistoryService.Get(ctx, userID, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		log.Error("conversation fetch failed", "err", err, "user_id", userID)
		writeInternalError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"conversation": c,
	})
}

func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	summaries, err := h.HistoryService.List(ctx, userID)
	if err != nil {
		log.Error("conversation list failed", "err", err, "user_id", userID)
		writeInternalError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"conversations": summaries,
	})
}

type deleteConversationRequest struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}

func (h *HistoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req deleteConversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case req.UserID == "":
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	case req.ConversationID == "":
		writeError(w, http.StatusBadRequest, "conversationId is required")
		return
	}

	if err := h.HistoryService.Delete(ctx, req.UserID, req.ConversationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		log.Error("conversation delete failed", "err", err, "user_id", req.UserID)
		writeInternalError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

type deleteAllConversationsRequest struct {
	UserID string `json:"userId"`
}

func (h *HistoryHandler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req deleteAllConversationsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := h.HistoryService.DeleteAll(ctx, req.UserID); err != nil {
		log.Error("bulk conversation delete failed", "err", err, "user_id", req.UserID)
		writeInternalError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
